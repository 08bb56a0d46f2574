package flows

import (
	"fmt"
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lower-cases an address before it keys a session
// or a store lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string, sentinel error) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", sentinel)
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return fmt.Errorf("%w: email is invalid", sentinel)
	}
	return nil
}

func requireField(value, name string, sentinel error) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", sentinel, name)
	}
	return nil
}
