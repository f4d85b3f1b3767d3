// Package uid generates identifiers.
//
// Numeric ids (snowflake) key database rows, lexically sortable string ids (ULID) tag
// realtime envelopes, and UUIDv7 strings carry correlation ids and token ids.
package uid

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NumberID generates int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// Snowflake generates time ordered int64 ids for one node.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator for node. The node must be in [0, 1023].
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: n}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// UUID generates RFC 9562 UUID strings.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a v7 UUID, falling back to v4.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ULID generates monotonic ULID strings; safe for concurrent use.
type ULID struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewULID returns a ULID generator seeded from crypto/rand.
func NewULID() *ULID {
	return &ULID{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

func (u *ULID) Generate() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(u.now()), u.entropy).String()
}
