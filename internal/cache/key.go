// Package cache stores intermediate analytics artifacts under deterministic
// keys derived from their inputs.
package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"
)

// Key identifies a cached artifact: the 64-character hex blake3 digest of its inputs.
type Key string

// Valid reports whether k looks like a digest produced by this package.
func (k Key) Valid() bool {
	if len(k) != 64 {
		return false
	}
	_, err := hex.DecodeString(string(k))
	return err == nil
}

func (k Key) String() string {
	return string(k)
}

// Signer describes an input cheaply, without reading its full content.
type Signer interface {
	Signature(ctx context.Context) (string, error)
}

// SignerFunc adapts a function to the Signer interface.
type SignerFunc func(ctx context.Context) (string, error)

// Signature calls f(ctx).
func (f SignerFunc) Signature(ctx context.Context) (string, error) {
	return f(ctx)
}

// FileSource signs a file by its size and modification time.
//
// A file rewritten with the same size within the same mtime tick keeps its
// signature, so a stale artifact may be served. Use ContentKey where that
// matters.
type FileSource string

// Signature returns "size_mtimeNanos".
func (f FileSource) Signature(ctx context.Context) (string, error) {
	info, err := os.Stat(string(f))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", string(f), err)
	}
	return fmt.Sprintf("%d_%d", info.Size(), info.ModTime().UnixNano()), nil
}

// SignatureKey derives a key from the signatures of the sources, in order.
func SignatureKey(ctx context.Context, sources ...Signer) (Key, error) {
	h := blake3.New()
	for _, src := range sources {
		sig, err := src.Signature(ctx)
		if err != nil {
			return "", err
		}
		_, _ = io.WriteString(h, sig)
		_, _ = io.WriteString(h, "|")
	}
	return Key(hex.EncodeToString(h.Sum(nil))), nil
}

// ContentKey derives a key from the full content of parts. Each part is
// msgpack-encoded; only string-keyed maps of strings, bools or interfaces are
// sorted, so parts hold other collections as slices in a canonical order.
func ContentKey(parts ...interface{}) (Key, error) {
	h := blake3.New()
	enc := msgpack.NewEncoder(h)
	enc.SetSortMapKeys(true)
	for i, part := range parts {
		if err := enc.Encode(part); err != nil {
			return "", fmt.Errorf("failed to hash key part %d: %w", i, err)
		}
	}
	return Key(hex.EncodeToString(h.Sum(nil))), nil
}
