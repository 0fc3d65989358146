package gate

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// newRunID generates a short unique ID for one execute call.
func newRunID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based ID if crypto/rand fails
		return fmt.Sprintf("r-%x", time.Now().UnixNano())
	}
	return "r-" + hex.EncodeToString(b)
}
