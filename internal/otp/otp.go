// Package otp contains the one-time proof of diagnosis (OTP) token and
// the digest that stands in for it on the wire.
//
// A [Token] never leaves the process in raw form: the only consumer of
// [Token.Value] is [Digest], and formatting a [Token] with the fmt
// package yields a redacted placeholder.
package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"math/big"
	"strings"
)

const (
	// Alphabet contains the characters an OTP is made of. Characters that
	// are easy to confuse when read aloud (0/O, 1/I, ...) are excluded.
	Alphabet = "AEFHJKLQRSUWXYZ123456789"

	// Length is the length of an OTP including the check character.
	Length = 10

	// redacted replaces the token in formatted output.
	redacted = "[otp redacted]"
)

var (
	// ErrInvalidLength indicates that the OTP does not have [Length] characters.
	ErrInvalidLength = errors.New("otp: invalid length")

	// ErrInvalidCharacter indicates that the OTP contains characters outside [Alphabet].
	ErrInvalidCharacter = errors.New("otp: invalid character")

	// ErrInvalidCheckCharacter indicates that the last character does not match.
	ErrInvalidCheckCharacter = errors.New("otp: invalid check character")
)

// Token is an opaque proof of diagnosis.
type Token struct {
	value string
}

// New wraps value into a [Token] without validating it. Use [Parse]
// when the value comes from user input.
func New(value string) Token {
	return Token{value: value}
}

// Value returns the raw token. Only [Digest] should need it.
func (t Token) Value() string {
	return t.value
}

// IsZero returns whether the token is empty.
func (t Token) IsZero() bool {
	return t.value == ""
}

// String implements fmt.Stringer and never returns the raw token.
func (t Token) String() string {
	return redacted
}

// GoString implements fmt.GoStringer and never returns the raw token.
func (t Token) GoString() string {
	return redacted
}

// MarshalText refuses to serialize the raw token.
func (t Token) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Digest returns the lowercase hex SHA-256 digest of the token, which is
// what the backend expects as the bearer credential.
func Digest(t Token) string {
	sum := sha256.Sum256([]byte(t.value))
	return hex.EncodeToString(sum[:])
}

// BearerAuthorization returns the value of the Authorization header for t.
func BearerAuthorization(t Token) string {
	return "Bearer " + Digest(t)
}

// Parse validates value and returns the corresponding [Token]. Lowercase
// input and separators commonly used when reading the OTP aloud (spaces
// and dashes) are accepted.
func Parse(value string) (Token, error) {
	value = strings.ToUpper(value)
	value = strings.NewReplacer(" ", "", "-", "").Replace(value)
	if len(value) != Length {
		return Token{}, ErrInvalidLength
	}
	for _, c := range value {
		if !strings.ContainsRune(Alphabet, c) {
			return Token{}, ErrInvalidCharacter
		}
	}
	if checkCharacter(value[:Length-1]) != value[Length-1] {
		return Token{}, ErrInvalidCheckCharacter
	}
	return New(value), nil
}

// Generate returns a random well-formed token reading randomness from r.
// When r is nil we use crypto/rand.
func Generate(r io.Reader) (Token, error) {
	if r == nil {
		r = rand.Reader
	}
	limit := big.NewInt(int64(len(Alphabet)))
	var builder strings.Builder
	for i := 0; i < Length-1; i++ {
		idx, err := rand.Int(r, limit)
		if err != nil {
			return Token{}, err
		}
		builder.WriteByte(Alphabet[idx.Int64()])
	}
	payload := builder.String()
	return New(payload + string(checkCharacter(payload))), nil
}

// checkCharacter computes the Luhn mod N check character of payload.
func checkCharacter(payload string) byte {
	n := len(Alphabet)
	factor, sum := 2, 0
	for i := len(payload) - 1; i >= 0; i-- {
		addend := factor * strings.IndexByte(Alphabet, payload[i])
		if factor == 2 {
			factor = 1
		} else {
			factor = 2
		}
		sum += addend/n + addend%n
	}
	return Alphabet[(n-sum%n)%n]
}
