package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" -> "jo***@example.com"
// Short local parts (2 chars or fewer) are fully masked: "ab@example.com" -> "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactPhone masks all but the last three digits of a phone number.
// "+27 82 555 1234" -> "***234"
func RedactPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) <= 3 {
		return "***"
	}
	return "***" + digits[len(digits)-3:]
}
