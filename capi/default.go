package capi

import (
	"alchemist"
	"sync"

	"go.uber.org/zap"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry used by the exported C symbols.
// It is configured from the environment on first use; a bad configuration is
// logged and replaced by the defaults so creating handles never fails.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = newDefaultRegistry()
	})
	return defaultRegistry
}

func newDefaultRegistry() *Registry {
	cfg, cfgErr := alchemist.ConfigFromEnv()

	logger, err := alchemist.NewLogger(cfg.LogLevel)
	if err != nil {
		logger = zap.NewNop()
	}
	if cfgErr != nil {
		logger.Warn("invalid configuration, using defaults", zap.Error(cfgErr))
		cfg = alchemist.DefaultConfig()
	}

	r, err := NewRegistry(cfg, logger)
	if err != nil {
		logger.Warn("registry setup failed, retrying with defaults", zap.Error(err))
		if r, err = NewRegistry(alchemist.DefaultConfig(), logger); err != nil {
			// only the snowflake node can fail here and its id is always in range
			panic(err)
		}
	}
	logger.Debug("registry ready",
		zap.Int("shards", r.cfg.ShardCount),
		zap.String("hasher", r.cfg.Hasher),
	)
	return r
}

func MapNew() Handle {
	return Default().MapNew()
}

func MapNewWithShards(n int) Handle {
	return Default().MapNewWithShards(n)
}

func MapDestroy(h Handle) {
	Default().MapDestroy(h)
}

func MapSet(h Handle, key, value uintptr) {
	Default().MapSet(h, key, value)
}

func MapGet(h Handle, key uintptr) uintptr {
	return Default().MapGet(h, key)
}

func MapRemove(h Handle, key uintptr) uintptr {
	return Default().MapRemove(h, key)
}

func MapLen(h Handle) int {
	return Default().MapLen(h)
}

func MapBatchSet(h Handle, keys, values []uintptr) {
	Default().MapBatchSet(h, keys, values)
}

func MapBatchGet(h Handle, keys, out []uintptr) {
	Default().MapBatchGet(h, keys, out)
}

func MapBatchRemove(h Handle, keys, out []uintptr) {
	Default().MapBatchRemove(h, keys, out)
}

func IteratorNew(h Handle) Handle {
	return Default().IteratorNew(h)
}

func IteratorNext(h Handle) (key, value uintptr, ok bool) {
	return Default().IteratorNext(h)
}

func IteratorNextBatch(h Handle, keysOut, valsOut []uintptr) int {
	return Default().IteratorNextBatch(h, keysOut, valsOut)
}

func IteratorDestroy(h Handle) {
	Default().IteratorDestroy(h)
}
