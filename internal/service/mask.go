package service

import "strings"

const maskSymbol = "*"

// MaskToken keeps the first and last four characters of a refresh token for
// display. Tokens shorter than eight characters are returned as they are.
func MaskToken(token string) string {
	r := []rune(token)
	if len(r) < 8 {
		return token
	}
	return string(r[:4]) + strings.Repeat(maskSymbol, len(r)-8) + string(r[len(r)-4:])
}

// accountID prefers the account's phone number over the masked token.
func accountID(userName, refreshToken string) string {
	if userName != "" {
		return userName
	}
	return MaskToken(refreshToken)
}
