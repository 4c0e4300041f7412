package utils

import (
	"crypto/sha256"
	"fmt"
)

// HashString returns a stable hex digest, used for cache keys.
func HashString(input string) string {
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", sum[:16])
}
