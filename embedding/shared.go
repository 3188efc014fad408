package embedding

import (
	"context"
	"sync"
)

var (
	sharedMu     sync.Mutex
	sharedEngine Engine
)

// Shared returns the process-wide engine, building it from cfg on first use.
// Later calls return the same instance regardless of cfg, so the model is
// configured once per process.
func Shared(ctx context.Context, cfg Config) (Engine, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedEngine != nil {
		return sharedEngine, nil
	}
	engine, err := NewEngine(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sharedEngine = engine
	return sharedEngine, nil
}

// SetShared installs engine as the process-wide instance. Tests use it to
// inject fakes.
func SetShared(engine Engine) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedEngine = engine
}

// ResetShared drops the process-wide instance.
func ResetShared() {
	SetShared(nil)
}
