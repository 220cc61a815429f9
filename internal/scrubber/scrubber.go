// Package scrubber removes upload credentials and key material from
// log messages.
package scrubber

import (
	"regexp"
	"strings"

	"github.com/immuni/upload-client/internal/otp"
)

// Scrubbed replaces every scrubbed value.
const Scrubbed = "[scrubbed]"

var (
	// bearerPattern matches bearer credentials.
	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`)

	// authorizationPattern matches Authorization header values.
	authorizationPattern = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*\[?)(bearer\s+)?[^\s,;\]]+`)

	// digestPattern matches SHA-256 hex digests.
	digestPattern = regexp.MustCompile(`\b[0-9a-fA-F]{64}\b`)

	// otpPattern matches OTP-shaped tokens and, to leave it alone, the
	// value of the client clock header.
	otpPattern = regexp.MustCompile(`(?i:immuni-client-clock)\s*[:=]\s*\[?\d+|\b[AEFHJKLQRSUWXYZ1-9]{10}\b`)

	// keyDataPattern matches serialized temporary exposure keys.
	keyDataPattern = regexp.MustCompile(`("key_data"\s*:\s*")[^"]*(")`)
)

// Scrub sanitizes a string containing upload credentials or key
// material so that it can be safely logged.
func Scrub(s string) string {
	s = authorizationPattern.ReplaceAllString(s, "${1}${2}"+Scrubbed)
	s = bearerPattern.ReplaceAllString(s, "${1}"+Scrubbed)
	s = digestPattern.ReplaceAllString(s, Scrubbed)
	s = otpPattern.ReplaceAllStringFunc(s, scrubOTP)
	s = keyDataPattern.ReplaceAllString(s, "${1}"+Scrubbed+"${2}")
	return s
}

// scrubOTP scrubs a match of otpPattern. All-digit tokens are usually
// numbers, so we only scrub them when they are valid OTPs.
func scrubOTP(match string) string {
	if len(match) != otp.Length {
		return match
	}
	if strings.IndexFunc(match, isLetter) < 0 {
		if _, err := otp.Parse(match); err != nil {
			return match
		}
	}
	return Scrubbed
}

func isLetter(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
