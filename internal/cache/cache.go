package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ppiankov/agtrack/internal/model"
)

// Cache memoizes normalization results. Normalization is a pure function,
// so hits and misses can never change resolution output, only speed it up.
type Cache interface {
	Get(key string) (model.NormalizedName, bool)
	Set(key string, name model.NormalizedName)
	Clear()
}

// Key generates a versioned cache key from a raw name string.
func Key(raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return "agtrack:v1:" + hex.EncodeToString(hash[:])
}
