// Package cache provides an optional hot memo in front of the translation
// table. The table stays the source of truth; a memo miss or error only
// costs a database read.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Memo is a string key/value store with expiry.
type Memo interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// TranslationKey builds the memo key for one translation. The whole triple
// is hashed with each part length-prefixed, so no choice of language codes
// can make two triples share a key and arbitrary text stays bounded.
func TranslationKey(text, sourceLang, targetLang string) string {
	h := sha256.New()
	for _, part := range []string{sourceLang, targetLang, text} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return "translation:" + hex.EncodeToString(h.Sum(nil)[:16])
}

// Nop is the memo used when Redis is not configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (Nop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Nop) Close() error { return nil }
