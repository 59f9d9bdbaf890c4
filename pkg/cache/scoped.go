package cache

// ScopedKeyer wraps a Keyer with a prefix so several tenants can share one
// backend. The server scopes keys by repository:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "repo:"+Hash([]byte(gitDir))[:12]+":")
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

// HistoryKey generates a prefixed history key.
func (k *ScopedKeyer) HistoryKey(repo string, tips []string, opts HistoryKeyOpts) string {
	return k.prefix + k.inner.HistoryKey(repo, tips, opts)
}

// ArtifactKey generates a prefixed artifact key. historyKey is passed through
// unchanged; it already carries the prefix when it came from this keyer.
func (k *ScopedKeyer) ArtifactKey(historyKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(historyKey, opts)
}
