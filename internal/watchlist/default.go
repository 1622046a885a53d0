package watchlist

import (
	"sync"

	"github.com/desertthunder/marquee/internal/shared"
)

var (
	defaultMu    sync.Mutex
	defaultOpts  Options
	defaultStore *Store
)

// Configure sets the options used to build the process-wide store.
//
// Returns [shared.ErrAlreadyConfigured] once [Default] has built it.
func Configure(opts Options) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore != nil {
		return shared.ErrAlreadyConfigured
	}
	defaultOpts = opts
	return nil
}

// Default returns the process-wide store, building it on first use.
//
// Without a prior [Configure] the store is backed by an in-memory slot.
func Default() *Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore == nil {
		defaultStore = New(defaultOpts)
	}
	return defaultStore
}
