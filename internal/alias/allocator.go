// Package alias assigns per-chatroom anonymous display names.
package alias

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"anonchat/internal/observability"
)

// DefaultMaxAttempts bounds the draws against already assigned aliases before falling back.
const DefaultMaxAttempts = 100

var adjectives = []string{
	"Mysterious", "Silent", "Hidden", "Shadow", "Secret", "Masked", "Invisible",
	"Unknown", "Phantom", "Mystic", "Stealth", "Enigmatic", "Cryptic", "Veiled",
	"Covert", "Anonymous", "Ethereal", "Celestial", "Astral", "Nebulous",
	"Cosmic", "Lunar", "Solar", "Stellar", "Galactic",
}

// "Dragon" and "Phoenix" appear twice, so only 23 nouns are distinct.
var nouns = []string{
	"Panda", "Fox", "Dragon", "Wolf", "Owl", "Tiger", "Bear", "Eagle",
	"Lion", "Deer", "Cat", "Hawk", "Rabbit", "Phoenix", "Snake", "Dolphin",
	"Raven", "Falcon", "Lynx", "Panther", "Jaguar", "Griffin", "Unicorn",
	"Dragon", "Phoenix",
}

// Allocator draws "Adjective Noun" aliases that are distinct within one Assign call.
// It is safe for concurrent use.
type Allocator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	adjectives  []string
	nouns       []string
	maxAttempts int
	log         *slog.Logger
}

// Option configures an Allocator
type Option func(*Allocator)

// WithSource makes draws deterministic.
func WithSource(src rand.Source) Option {
	return func(a *Allocator) {
		a.rng = rand.New(src)
	}
}

// WithVocabulary replaces the adjective and noun lists.
func WithVocabulary(adjectives, nouns []string) Option {
	return func(a *Allocator) {
		a.adjectives = adjectives
		a.nouns = nouns
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		a.maxAttempts = n
	}
}

// WithLogger sets the logger used to report fallback aliases.
func WithLogger(log *slog.Logger) Option {
	return func(a *Allocator) {
		a.log = log
	}
}

// NewAllocator creates an allocator over the built-in vocabularies
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		adjectives:  adjectives,
		nouns:       nouns,
		maxAttempts: DefaultMaxAttempts,
		log:         observability.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Combinations returns the number of distinct aliases the vocabularies can produce.
func (a *Allocator) Combinations() int {
	return len(distinct(a.adjectives)) * len(distinct(a.nouns))
}

// Assign maps every participant id to an alias. It never fails. Once the retry bound is
// exhausted the alias gets a random numeric suffix that is not checked against the aliases
// already assigned, so duplicates are possible near the vocabulary limit.
func (a *Allocator) Assign(participantIDs []string) map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()

	used := make(map[string]struct{}, len(participantIDs))
	names := make(map[string]string, len(participantIDs))
	for _, id := range participantIDs {
		name := a.unique(used)
		used[name] = struct{}{}
		names[id] = name
	}
	return names
}

func (a *Allocator) unique(used map[string]struct{}) string {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		name := a.draw()
		if _, taken := used[name]; !taken {
			return name
		}
	}

	name := fmt.Sprintf("%s %d", a.draw(), a.rng.IntN(1000))
	observability.AliasFallbacks.Inc()
	a.log.Warn("alias retries exhausted, using numeric suffix",
		slog.Int("assigned", len(used)),
		slog.String("alias", name))
	return name
}

func (a *Allocator) draw() string {
	adjective := a.adjectives[a.rng.IntN(len(a.adjectives))]
	noun := a.nouns[a.rng.IntN(len(a.nouns))]
	return adjective + " " + noun
}

func distinct(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
