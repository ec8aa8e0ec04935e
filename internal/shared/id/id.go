// Package id generates the identifiers a viewer attaches to its traffic.
//
// IDs are ULIDs, optionally prefixed with a short type tag so they read well
// in logs and request headers (viewer_01J...). ULIDs sort by
// creation time, which keeps log lines from one viewer process grouped.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ViewerID identifies one viewer process for its whole lifetime
type ViewerID string

// ViewerPrefix tags viewer IDs
const ViewerPrefix = "viewer"

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
	now       func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator whose IDs stay strictly increasing within
// the same millisecond.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(ulid.Monotonic(rand.Reader, 0))
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for tests that need deterministic output.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy, now: time.Now}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewViewerID generates a new viewer ID
func NewViewerID() ViewerID {
	return ViewerID(Default().GenerateWithPrefix(ViewerPrefix))
}

func (id ViewerID) String() string { return string(id) }

// Split separates an optional prefix from the ULID part
func Split(id string) (prefix, raw string) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		return id[:i], id[i+1:]
	}
	return "", id
}

// IsValid reports whether id is a ULID, with or without a prefix
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Parse parses a ULID string, ignoring any prefix
func Parse(id string) (ulid.ULID, error) {
	_, raw := Split(id)
	return ulid.Parse(raw)
}

// Timestamp extracts the creation time from an ID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
