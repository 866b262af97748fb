// Package cache stores merge-tree extraction results between runs.
//
// Extracting a merge tree means a pvpython subprocess and a full pass of the
// topology filter, which dominates the cost of a run. The result depends
// only on the volume content and the extraction options, so it is cached
// under a key derived from both.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a cache directory
//   - [NullCache]: stores nothing, used for --no-cache
//
// # Keys
//
// A [Keyer] turns a volume hash and options into a key. [ScopedKeyer]
// prefixes every key, which separates entries produced by different toolkit
// installations.
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "pvpython:/opt/pv/bin/pvpython:")
//	key := k.ExtractKey(volumeHash, cache.ExtractKeyOpts{Variant: "Join Tree"})
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss. Expired
	// and unreadable entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// TTLs for cached artifacts.
const (
	TTLExtract  = 30 * 24 * time.Hour
	TTLResample = 7 * 24 * time.Hour
)

// Keyer derives cache keys.
type Keyer interface {
	// ExtractKey keys a merge-tree graph by volume content hash and options.
	ExtractKey(volumeHash string, opts ExtractKeyOpts) string

	// ResampleKey keys a resampled volume by mesh content hash and options.
	ResampleKey(inputHash string, opts ResampleKeyOpts) string
}

// ExtractKeyOpts are the options that change an extraction result.
type ExtractKeyOpts struct {
	Variant             string   `json:"variant"`
	WithSegmentation    bool     `json:"with_segmentation"`
	Tolerance           float64  `json:"tolerance"`
	ClassificationNames []string `json:"classification_names,omitempty"`
	ScalarNames         []string `json:"scalar_names,omitempty"`
}

// ResampleKeyOpts are the options that change a resampling result.
type ResampleKeyOpts struct {
	Dims      [3]int `json:"dims"`
	Resampler string `json:"resampler"`
}

// DefaultKeyer hashes the inputs of each key with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ExtractKey implements Keyer.
func (DefaultKeyer) ExtractKey(volumeHash string, opts ExtractKeyOpts) string {
	return hashKey("extract", volumeHash, opts)
}

// ResampleKey implements Keyer.
func (DefaultKeyer) ResampleKey(inputHash string, opts ResampleKeyOpts) string {
	return hashKey("resample", inputHash, opts)
}

// NullCache stores nothing. Every Get is a miss.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
