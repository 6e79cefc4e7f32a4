package intake

import (
	"regexp"
	"strings"
)

var (
	transcriptPhonePattern = regexp.MustCompile(`\d{11}|\d{3}\s?\d{3}\s?\d{2}\s?\d{2}|05\d{9}`)
	nonDigits              = regexp.MustCompile(`\D`)
	whitespace             = regexp.MustCompile(`\s`)
)

// PhoneFromTranscript returns the first telephone-shaped digit run in a call transcript, with
// whitespace removed, or "" when there is none.
func PhoneFromTranscript(transcript string) string {
	m := transcriptPhonePattern.FindString(transcript)
	return whitespace.ReplaceAllString(m, "")
}

// NormalizePhone brings phones into the local 11-digit leading-zero form. It is best effort:
// anything that is not 10 digits, or 11 digits starting with 0, is returned as received.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	digits := nonDigits.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 10:
		return "0" + digits
	case len(digits) == 11 && digits[0] == '0':
		return digits
	default:
		return raw
	}
}
