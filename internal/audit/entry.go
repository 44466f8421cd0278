package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry is one audit record. ActorID is empty for system-initiated events.
type Entry struct {
	ID          string            `json:"id"`
	ActorID     string            `json:"actor_id,omitempty"`
	Action      string            `json:"action"`
	Description string            `json:"description"`
	TargetID    string            `json:"target_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	PrevHash    string            `json:"prev_hash,omitempty"`
	Hash        string            `json:"hash"`
}

// Sink persists sealed entries.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
}

// Purger removes entries older than a cutoff. Sinks that support
// retention implement it.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ErrChainBroken is returned by [VerifyChain] on the first inconsistent entry.
var ErrChainBroken = errors.New("audit chain broken")

// ComputeHash returns the SHA-256 of the canonical form of e, excluding
// e.Hash itself.
func ComputeHash(e Entry) string {
	var b strings.Builder
	field := func(s string) {
		b.WriteString(s)
		b.WriteByte(0x1f)
	}

	field(e.ID)
	field(e.ActorID)
	field(e.Action)
	field(e.Description)
	field(e.TargetID)
	field(e.Timestamp.UTC().Format(time.RFC3339Nano))
	field(e.PrevHash)

	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field(k + "=" + e.Metadata[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Chain links entries by hash. It is not safe for concurrent use; the
// [Dispatcher] owns one from its single writer goroutine.
type Chain struct {
	last string
}

// NewChain starts a chain whose first entry points at anchor (usually the
// hash of the newest persisted entry, or empty).
func NewChain(anchor string) *Chain {
	return &Chain{last: anchor}
}

// Seal sets PrevHash and Hash on e without advancing the chain.
func (c *Chain) Seal(e Entry) Entry {
	e.PrevHash = c.last
	e.Hash = ComputeHash(e)
	return e
}

// Commit advances the chain past a persisted entry.
func (c *Chain) Commit(e Entry) {
	c.last = e.Hash
}

// Last returns the hash the next entry will point at.
func (c *Chain) Last() string {
	return c.last
}

// VerifyChain checks that every entry's Hash matches its content and that
// each PrevHash names its predecessor. The first entry's PrevHash is not
// checked, so a run that starts after a retention purge still verifies.
func VerifyChain(entries []Entry) error {
	for i, e := range entries {
		if ComputeHash(e) != e.Hash {
			return fmt.Errorf("%w: entry %d (%s) content does not match hash", ErrChainBroken, i, e.ID)
		}
		if i > 0 && e.PrevHash != entries[i-1].Hash {
			return fmt.Errorf("%w: entry %d (%s) does not follow %s", ErrChainBroken, i, e.ID, entries[i-1].ID)
		}
	}
	return nil
}

// IDSource generates lexicographically sortable entry ids.
type IDSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDSource creates an [IDSource] seeded from the wall clock.
func NewIDSource() *IDSource {
	return &IDSource{
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
	}
}

// New returns an id for an entry created at t.
func (s *IDSource) New(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}
