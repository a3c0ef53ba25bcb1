// path.go — segment name to filesystem path resolution

package shm

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"shmchan/constants"
)

// ResolvePath maps a cleartext segment identifier to its backing file.
// Ordinary segments live under /dev/shm, huge-page segments under
// /dev/hugepages. Leading separators are trimmed; identifiers that embed
// separators or exceed NAME_MAX are replaced by a fixed-width SHA3-256
// digest so every identifier resolves to exactly one flat filename.
func ResolvePath(name string, hugePages bool) string {
	base := constants.ShmDir
	if hugePages {
		base = constants.HugePageDir
	}
	cleaned := strings.TrimLeft(name, "/")
	if cleaned == "" || strings.ContainsRune(cleaned, '/') ||
		len(cleaned) > constants.MaxSegmentName {
		sum := sha3.Sum256([]byte(name))
		cleaned = hex.EncodeToString(sum[:])
	}
	return base + "/" + cleaned
}
