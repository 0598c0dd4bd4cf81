package validator

import (
	"net/mail"
	"strings"
)

func Email(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == strings.TrimSpace(email)
}

func DisplayName(name string) bool {
	return runes(name) >= 1 && runes(name) <= 50
}

// ApplicationReason requires some text explaining the request.
func ApplicationReason(reason string) bool {
	return runes(reason) >= 1 && runes(reason) <= 1000
}

func SpecialRequests(text string) bool {
	return runes(text) <= 500
}
