package core

import "sync"

// AssetRegistry interns asset identities for one simulation context.
// It replaces any notion of a process-wide asset cache: each context owns
// its registry, passes it by reference and may reset it between runs.
//
// The registry is safe for concurrent readers; engines share one instance.
type AssetRegistry struct {
	mu     sync.RWMutex
	assets map[Asset]struct{}
}

// NewAssetRegistry creates an empty registry.
func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{assets: make(map[Asset]struct{})}
}

// Asset returns the interned currency identity for the given platform and symbol.
func (r *AssetRegistry) Asset(platform Platform, identifier string) Asset {
	return r.intern(Asset{Platform: platform, Identifier: identifier})
}

// Contract returns the interned derivative contract leg identity.
func (r *AssetRegistry) Contract(platform Platform, identifier string, side DerivativeSide) Asset {
	return r.intern(Asset{Platform: platform, Identifier: identifier, Side: side})
}

// Known reports whether the identity has been interned.
func (r *AssetRegistry) Known(asset Asset) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.assets[asset]
	return ok
}

// Len returns the number of interned identities.
func (r *AssetRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}

// Reset clears all interned identities.
// Intended for test isolation and context reuse.
func (r *AssetRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets = make(map[Asset]struct{})
}

func (r *AssetRegistry) intern(asset Asset) Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[asset]; !ok {
		r.assets[asset] = struct{}{}
	}
	return asset
}
