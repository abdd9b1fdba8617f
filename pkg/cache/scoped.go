package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// environments can share one Redis instance.
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the default layout.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) GraphKey(shortName, version string) string {
	return k.prefix + k.inner.GraphKey(shortName, version)
}

func (k *ScopedKeyer) ApplicationKey(shortName, version string) string {
	return k.prefix + k.inner.ApplicationKey(shortName, version)
}

func (k *ScopedKeyer) LayoutKey(view, rootID string) string {
	return k.prefix + k.inner.LayoutKey(view, rootID)
}

func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}
