package services

import (
	"fmt"
	"net/mail"
	"unicode/utf8"
)

const (
	nameMin, nameMax         = 1, 50
	usernameMin, usernameMax = 4, 25
	emailMin, emailMax       = 6, 50
	titleMin, titleMax       = 1, 200
	bodyMin                  = 30

	// bcrypt ignores input past 72 bytes and x/crypto refuses it.
	passwordMaxBytes = 72
)

func checkLength(field, label, value string, lo, hi int) error {
	n := utf8.RuneCountInString(value)
	if n < lo || n > hi {
		return invalid(field, fmt.Sprintf("%s must be between %d and %d characters long", label, lo, hi))
	}
	return nil
}

func checkEmail(value string) error {
	if err := checkLength("email", "Email", value, emailMin, emailMax); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return invalid("email", "Invalid email address")
	}
	return nil
}
