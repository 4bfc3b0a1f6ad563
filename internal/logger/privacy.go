package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// MinHashSaltLength is the shortest LOG_HASH_SALT accepted by InitHashSalt.
const MinHashSaltLength = 32

var hashSalt = "default-salt-change-in-production"

// ErrWeakHashSalt is returned when LOG_HASH_SALT is set but too short.
var ErrWeakHashSalt = errors.New("LOG_HASH_SALT must be at least 32 characters")

// InitHashSalt loads the salt from LOG_HASH_SALT. An unset variable keeps the
// built-in salt; a short one is rejected.
func InitHashSalt() error {
	salt := os.Getenv("LOG_HASH_SALT")
	if salt == "" {
		return nil
	}
	if len(salt) < MinHashSaltLength {
		return ErrWeakHashSalt
	}
	hashSalt = salt
	return nil
}

// InitHashSaltForTesting sets the salt directly.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

func hash(data string) string {
	sum := sha256.Sum256([]byte(data + ":" + hashSalt))
	return hex.EncodeToString(sum[:])[:8]
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	return hash(fmt.Sprintf("%d", chatID))
}

// HashSubscriptionID hashes a subscription ID so log lines can be correlated
// without exposing which services the user pays for.
func HashSubscriptionID(id string) string {
	return hash("sub:" + id)
}

// RedactName hides a subscription or notification name but keeps its shape.
func RedactName(name string) string {
	if name == "" {
		return "<empty>"
	}
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(strings.Fields(name)), len(name))
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}
	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}
	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}
