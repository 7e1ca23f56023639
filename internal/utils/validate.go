package utils

import "regexp"

// Input format checks shared by the user, dish and order services.  The
// patterns are deliberately permissive; the database remains the final
// authority on uniqueness.

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,18}[0-9]$`)
)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

// ValidPhone reports whether s looks like a phone number (digits with
// optional leading + and separators).
func ValidPhone(s string) bool { return phoneRe.MatchString(s) }

// ValidPrice reports whether a price in cents is acceptable for the
// catalog.
func ValidPrice(cents int64) bool { return cents >= 0 }

// ValidQuantity reports whether an order line quantity is acceptable.
func ValidQuantity(q int64) bool { return q >= 1 }
