package capi

import (
	"alchemist"
	"math/rand"

	"github.com/bwmarrin/snowflake"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Handle is the opaque id a foreign caller holds for a map or an iterator.
// 0 is never issued and stands for "no handle".
type Handle uint64

const NilHandle Handle = 0

// Registry owns every map and iterator reachable through handles.
// Destroying a handle unregisters it, so a stale handle resolves to nothing.
type Registry struct {
	cfg    alchemist.Config
	logger *zap.Logger
	node   *snowflake.Node
	maps   cmap.ConcurrentMap[Handle, *alchemist.Map]
	iters  cmap.ConcurrentMap[Handle, *alchemist.Iterator]
}

// NewRegistry validates cfg and builds an empty registry. A nil logger
// disables logging.
func NewRegistry(cfg alchemist.Config, logger *zap.Logger) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	node, err := newNode()
	if err != nil {
		return nil, err
	}
	return &Registry{
		cfg:    cfg,
		logger: logger,
		node:   node,
		maps:   cmap.NewWithCustomShardingFunction[Handle, *alchemist.Map](shardHandle),
		iters:  cmap.NewWithCustomShardingFunction[Handle, *alchemist.Iterator](shardHandle),
	}, nil
}

func newNode() (*snowflake.Node, error) {
	nodeID := rand.Int63() % 1023
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "snowflake node")
	}
	return node, nil
}

// shardHandle folds a snowflake id; its low bits are the per-millisecond sequence.
func shardHandle(h Handle) uint32 {
	return uint32(h) ^ uint32(h>>32)
}

func (r *Registry) nextHandle() Handle {
	return Handle(r.node.Generate().Int64())
}

// Config returns the configuration new maps are built with.
func (r *Registry) Config() alchemist.Config {
	return r.cfg
}

func (r *Registry) addMap(m *alchemist.Map) Handle {
	h := r.nextHandle()
	r.maps.Set(h, m)
	return h
}

func (r *Registry) lookupMap(h Handle) *alchemist.Map {
	if h == NilHandle {
		return nil
	}
	m, _ := r.maps.Get(h)
	return m
}

func (r *Registry) popMap(h Handle) *alchemist.Map {
	if h == NilHandle {
		return nil
	}
	m, _ := r.maps.Pop(h)
	return m
}

func (r *Registry) addIterator(it *alchemist.Iterator) Handle {
	h := r.nextHandle()
	r.iters.Set(h, it)
	return h
}

func (r *Registry) lookupIterator(h Handle) *alchemist.Iterator {
	if h == NilHandle {
		return nil
	}
	it, _ := r.iters.Get(h)
	return it
}

func (r *Registry) popIterator(h Handle) *alchemist.Iterator {
	if h == NilHandle {
		return nil
	}
	it, _ := r.iters.Pop(h)
	return it
}

// Maps returns the number of live map handles.
func (r *Registry) Maps() int {
	return r.maps.Count()
}

// Iterators returns the number of live iterator handles.
func (r *Registry) Iterators() int {
	return r.iters.Count()
}
