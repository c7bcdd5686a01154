// internal/model/envelope.go
package model

// Envelope is handed unchanged to every enabled notification backend.
type Envelope struct {
	PlainText  string `json:"plain_text"`
	MarkupText string `json:"markup_text"`
	Title      string `json:"title"`
}

// Delivery records what happened to one backend during a dispatch.
type Delivery struct {
	Channel string `json:"channel"`
	Err     error  `json:"-"`
}
