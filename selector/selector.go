package selector

import (
	"github.com/cespare/xxhash/v2"

	"go.ntppool.org/roast/config"
)

// Hash is the 64-bit hash of a trimmed line.
type Hash uint64

// HashLine hashes the trimmed line text.
func HashLine(trimmed string) Hash {
	return Hash(xxhash.Sum64String(trimmed))
}

// SelectionHalf is the high 32 bits of the hash.
func (h Hash) SelectionHalf() uint32 {
	return uint32(h >> 32)
}

// IndexHalf is the low 32 bits of the hash.
func (h Hash) IndexHalf() uint32 {
	return uint32(h)
}

// Selected reports whether a line with this hash is selected at chance.
func (h Hash) Selected(chance int) bool {
	return int(h.SelectionHalf()%100) < chance
}

// Message returns the message for a line with this hash. It returns
// false for an empty pool.
func (h Hash) Message(messages []string) (string, bool) {
	if len(messages) == 0 {
		return "", false
	}
	return messages[h.IndexHalf()%uint32(len(messages))], true
}

// Select returns the message for the trimmed line, or false when the
// line isn't selected.
func Select(trimmed string, cfg config.Config) (string, bool) {
	return SelectHash(HashLine(trimmed), cfg)
}

// SelectHash is Select for an already computed hash.
func SelectHash(h Hash, cfg config.Config) (string, bool) {
	if !h.Selected(cfg.SelectionChance) {
		return "", false
	}
	return h.Message(cfg.Messages)
}
