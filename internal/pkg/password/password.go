package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 4096
	keyLen     = 32
)

// Hash derives a hex-encoded key from the plaintext and the per-user
// salt. The same (plain, salt) pair always yields the same hash.
func Hash(plain, salt string) string {
	key := pbkdf2.Key([]byte(plain), []byte(salt), iterations, keyLen, sha256.New)
	return hex.EncodeToString(key)
}

// Compare reports whether plain hashed with salt matches the stored hash.
func Compare(hash, plain, salt string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(Hash(plain, salt))) == 1
}
