package alchemist

import "github.com/pkg/errors"

// Only configuration can fail. Map and Iterator operations have no error path.
var (
	ErrInvalidShardCount = errors.New("shard count is invalid")
	ErrUnknownHasher     = errors.New("unknown hasher")
	ErrUnknownLogLevel   = errors.New("unknown log level")
)
