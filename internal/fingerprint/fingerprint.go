package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Separator joins the two normalized documents before hashing.
const Separator = "|||"

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize trims, lowercases and collapses every whitespace run (line breaks included) to one space.
func Normalize(text string) string {
	text = lineBreaks.Replace(strings.TrimSpace(text))
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Key returns the lowercase hex SHA-256 cache key for a resume and job description pair.
func Key(resumeText, jobDescriptionText string) string {
	sum := sha256.Sum256([]byte(Normalize(resumeText) + Separator + Normalize(jobDescriptionText)))
	return hex.EncodeToString(sum[:])
}

// IsValid reports whether s is a well-formed 64 character hex digest.
func IsValid(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, ch := range s {
		if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')) {
			return false
		}
	}
	return true
}

// Short returns a log-friendly prefix of a cache key.
func Short(key string) string {
	if len(key) <= 16 {
		return key
	}
	return key[:16]
}
