package utils

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// HashPassword returns bcrypt hash using the given cost. Passwords longer
// than 72 bytes are cut on a rune boundary first.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(TruncatePassword(plain)), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(TruncatePassword(plain))) == nil
}

// TruncatePassword returns the longest prefix of s that fits in 72 bytes
// without splitting a UTF-8 sequence.
func TruncatePassword(s string) string {
	if len(s) <= maxPasswordBytes {
		return s
	}
	cut := maxPasswordBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
