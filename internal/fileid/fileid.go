// Package fileid derives stable application detail IDs from CV file paths, so that
// re-ingesting or removing a file always addresses the same stored record.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "cv:"

// idBytes is how much of the path digest ends up in the ID.
const idBytes = 16

// FromPath returns the detail ID for the CV at absolutePath. The path is cleaned first.
func FromPath(absolutePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return prefix + hex.EncodeToString(hash[:idBytes])
}
