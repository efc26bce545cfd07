package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// ShortHash returns the first n characters of SHA256(input). Used to log
// IPs and user IDs without storing raw PII.
func ShortHash(input string, n int) string {
	full := SHA256Hex(input)
	if n > len(full) {
		return full
	}
	return full[:n]
}

// UserChannel derives the per-user broadcast channel name. The user ID is
// hashed so channel names never expose raw IDs to shared infrastructure.
func UserChannel(prefix, userID string) string {
	return prefix + ":" + ShortHash(userID, 16)
}
