package utils

import (
	netmail "net/mail"
)

func ValidateEmail(email string) error {
	_, err := netmail.ParseAddress(email)

	return err
}
