package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis database without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "lineage:")
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

// GraphKey generates a prefixed graph key.
func (k *ScopedKeyer) GraphKey(digest string) string {
	return k.prefix + k.inner.GraphKey(digest)
}

// QueryKey generates a prefixed query key.
func (k *ScopedKeyer) QueryKey(graphDigest string, opts QueryKeyOpts) string {
	return k.prefix + k.inner.QueryKey(graphDigest, opts)
}
