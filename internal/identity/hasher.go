package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// RoomKeyLength is the number of hex characters kept from the digest.
const RoomKeyLength = 32

// RoomKey derives the room key for an identifier: the SHA-256 digest of its
// UTF-8 bytes as lowercase hex, truncated to RoomKeyLength.
func RoomKey(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:])[:RoomKeyLength]
}

// IsRoomKey reports whether s has the shape of a room key.
func IsRoomKey(s string) bool {
	if len(s) != RoomKeyLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
