// Package slug builds URL-safe, unique identifiers from human-authored
// titles in any script.
//
// Rules (Make)
//  1. Trim surrounding whitespace.
//  2. Transliterate (Cyrillic table, Latin diacritics dropped).
//  3. Keep ASCII a-z and 0-9, turn every other run into a single "-".
//  4. Trim leading and trailing "-" and cap the result at MaxLen bytes.
//
// An empty result is replaced by the generator prefix plus a random suffix,
// so a slug is never empty and never starts with a hyphen.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxLen caps the base slug; numeric suffixes may extend it.
	MaxLen = 100
	// SuffixLen is the length of the random fallback suffix.
	SuffixLen = 8
)

var pattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Lookup reports whether a slug is already used by another row of the
// target entity. excludeID is the row being edited (0 for none).
type Lookup interface {
	Exists(ctx context.Context, slug string, excludeID uint) (bool, error)
}

// LookupFunc adapts a plain function to Lookup.
type LookupFunc func(ctx context.Context, slug string, excludeID uint) (bool, error)

// Exists implements Lookup.
func (f LookupFunc) Exists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return f(ctx, slug, excludeID)
}

// Make returns the normalized base form of title, which may be empty.
func Make(title string) string {
	src := Transliterate(strings.TrimSpace(title))

	var b strings.Builder
	b.Grow(len(src))
	lastWasDash := true // suppresses a leading dash
	for _, r := range src {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteByte('-')
				lastWasDash = true
			}
		}
	}

	s := strings.Trim(b.String(), "-")
	if len(s) > MaxLen {
		s = strings.TrimRight(s[:MaxLen], "-")
	}
	return s
}

// Valid reports whether s is a well-formed slug.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Generator resolves unique slugs for one entity kind.
type Generator struct {
	// Prefix is used for titles that normalize to nothing, e.g. "post".
	Prefix string
	// random returns n lowercase alphanumeric characters; tests replace it.
	random func(n int) string
}

// New returns a Generator whose fallback slugs start with prefix.
func New(prefix string) *Generator {
	prefix = Make(prefix)
	if prefix == "" {
		prefix = "item"
	}
	return &Generator{Prefix: prefix, random: randomSuffix}
}

// Base returns the normalized form of title, falling back to
// "<prefix>-<random>" when nothing survives normalization.
func (g *Generator) Base(title string) string {
	if s := Make(title); s != "" {
		return s
	}
	return g.Prefix + "-" + g.random(SuffixLen)
}

// Unique returns a slug for title that lookup does not report as taken.
// Candidates are base, base-1, base-2, … until one is free.
func (g *Generator) Unique(ctx context.Context, lookup Lookup, title string, excludeID uint) (string, error) {
	return g.resolve(ctx, lookup, g.Base(title), excludeID)
}

// WithRandomSuffix is used after a storage-level unique violation: the base
// gets a fresh random tail so a concurrent writer of the same title cannot
// collide again on the same numeric sequence.
func (g *Generator) WithRandomSuffix(ctx context.Context, lookup Lookup, title string, excludeID uint) (string, error) {
	base := g.Base(title)
	return g.resolve(ctx, lookup, base+"-"+g.random(SuffixLen), excludeID)
}

func (g *Generator) resolve(ctx context.Context, lookup Lookup, base string, excludeID uint) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := lookup.Exists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("slug lookup %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

func randomSuffix(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return b.String()[:n]
}

var defaultGenerator = New("post")

// Unique resolves a slug using the "post-" fallback prefix.
func Unique(ctx context.Context, lookup Lookup, title string, excludeID uint) (string, error) {
	return defaultGenerator.Unique(ctx, lookup, title, excludeID)
}
