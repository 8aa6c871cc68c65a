package dictionary

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	// CodeLength is the length of a shared dictionary access code.
	CodeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewCode draws a random access code from src, or from crypto/rand when src
// is nil.
func NewCode(src io.Reader) (string, error) {
	if src == nil {
		src = rand.Reader
	}
	// Bytes at or above this bound are rejected to keep the draw uniform.
	bound := byte(256 - 256%len(codeAlphabet))

	code := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)
	for len(code) < CodeLength {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= bound || len(code) == CodeLength {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
		}
	}
	return string(code), nil
}

// NormalizeCode trims and upper-cases user input and reports whether the
// result is a well-formed code.
func NormalizeCode(s string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != CodeLength {
		return code, false
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			return code, false
		}
	}
	return code, true
}
