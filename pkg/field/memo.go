package field

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
)

// Memo caches the normalized fields of one descriptor set and recomputes them
// only when the caller supplied revision changes. Safe for concurrent use.
type Memo struct {
	opts []Option

	mu       sync.Mutex
	revision string
	primed   bool
	fields   []Field
	err      error
}

// NewMemo returns a memo that normalizes with opts.
func NewMemo(opts ...Option) *Memo {
	return &Memo{opts: opts}
}

// Fields returns the cached result for revision or normalizes the output of
// load. load is not called on a cache hit. Errors are cached too, so a broken
// revision is not re-normalized on every call.
func (m *Memo) Fields(revision string, load func() []Descriptor) ([]Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.primed && m.revision == revision {
		return m.snapshot()
	}

	var descriptors []Descriptor
	if load != nil {
		descriptors = load()
	}
	m.fields, m.err = Normalize(descriptors, m.opts...)
	m.revision = revision
	m.primed = true
	return m.snapshot()
}

// Invalidate drops the cached result.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	m.primed = false
	m.fields = nil
	m.err = nil
	m.mu.Unlock()
}

func (m *Memo) snapshot() ([]Field, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]Field(nil), m.fields...), nil
}

// Fingerprint hashes the declarative members of descriptors. Function members
// are not part of the hash; callers that swap functions must pick their own
// revision.
func Fingerprint(descriptors []Descriptor) string {
	payload, err := json.Marshal(descriptors)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
