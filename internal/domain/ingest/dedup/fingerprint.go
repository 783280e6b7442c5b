package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the stable content hash identifying a transaction
// independent of import batch or row order. The inputs are joined with a pipe;
// the normalized description goes last so earlier fields (which never contain
// a pipe) stay distinguishable. Output is lowercase hex of a SHA-256 digest.
func Fingerprint(userID, accountID, postedDate, amount, normalizedDescription string) string {
	input := strings.Join([]string{userID, accountID, postedDate, amount, normalizedDescription}, "|")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
