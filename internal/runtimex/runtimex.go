// Package runtimex contains runtime extensions used to turn violated
// startup invariants into panics.
package runtimex

import "fmt"

// PanicOnError calls panic() if err is not nil.
func PanicOnError(err error, message string) {
	if err != nil {
		panic(fmt.Errorf("%s: %w", message, err))
	}
}

// PanicIfFalse calls panic if assertion is false.
func PanicIfFalse(assertion bool, message string) {
	if !assertion {
		panic(message)
	}
}

// PanicIfTrue calls panic if assertion is true.
func PanicIfTrue(assertion bool, message string) {
	PanicIfFalse(!assertion, message)
}

// Try1 returns value if err is nil and otherwise panics.
func Try1[T any](value T, err error) T {
	PanicOnError(err, "Try1")
	return value
}
