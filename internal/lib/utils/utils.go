// Package utils contains small helper functions used across the project.
package utils

import "strings"

// MaskEmail hides most of an email's local part so addresses can be
// logged without exposing them: "rider@example.com" -> "r***@example.com".
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
