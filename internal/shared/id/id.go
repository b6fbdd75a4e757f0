// Package id provides typed, prefixed ULID generation.
//
// ULIDs are lexicographically sortable, so session and timer ids order by
// creation time without a separate timestamp, and the prefix makes logs
// readable (sess_*, tmr_*, req_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies a terminal session.
type SessionID string

// TimerID identifies a dwell or settle timer.
type TimerID string

// RequestID identifies one provider invocation.
type RequestID string

const (
	sessionPrefix = "sess"
	timerPrefix   = "tmr"
	requestPrefix = "req"
)

// Generator generates ULIDs from a guarded entropy source.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGen *Generator
	once       sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGen = &Generator{entropy: rand.Reader}
	})
	return defaultGen
}

// NewGenerator creates a generator with a custom entropy source, useful for
// deterministic tests.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID string.
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

func (g *Generator) prefixed(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate())
}

// NewSessionID generates a session id.
func NewSessionID() SessionID { return SessionID(Default().prefixed(sessionPrefix)) }

// NewTimerID generates a timer id.
func NewTimerID() TimerID { return TimerID(Default().prefixed(timerPrefix)) }

// NewRequestID generates a request id.
func NewRequestID() RequestID { return RequestID(Default().prefixed(requestPrefix)) }

func (id SessionID) String() string { return string(id) }
func (id TimerID) String() string   { return string(id) }
func (id RequestID) String() string { return string(id) }
