package cache

// ScopedKeyer wraps a Keyer with a prefix. Results computed by different
// toolkit installations can differ, so the CLI scopes keys by the toolkit
// executable.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "pvpython:/usr/bin/pvpython:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ExtractKey generates a prefixed key for merge-tree results.
func (k *ScopedKeyer) ExtractKey(volumeHash string, opts ExtractKeyOpts) string {
	return k.prefix + k.inner.ExtractKey(volumeHash, opts)
}

// ResampleKey generates a prefixed key for resampled volumes.
func (k *ScopedKeyer) ResampleKey(inputHash string, opts ResampleKeyOpts) string {
	return k.prefix + k.inner.ResampleKey(inputHash, opts)
}
