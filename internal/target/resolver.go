// Package target resolves requested package names into build targets.
package target

import (
	"strings"

	"github.com/dosanma1/bundlekit/internal/workspace"
)

// BuildTarget is one package to build.
type BuildTarget = workspace.Package

// Resolver turns requested names into build targets.
type Resolver interface {
	Resolve(requested []string) ([]BuildTarget, error)
}

// New returns the fuzzy resolver when allowFuzzy is set and the exact one otherwise.
func New(all []BuildTarget, allowFuzzy bool) Resolver {
	if allowFuzzy {
		return NewFuzzyResolver(all)
	}
	return NewExactResolver(all)
}

// Resolve is a convenience wrapper around New(all, allowFuzzy).Resolve(requested).
func Resolve(all []BuildTarget, requested []string, allowFuzzy bool) ([]BuildTarget, error) {
	return New(all, allowFuzzy).Resolve(requested)
}

// ExactResolver only matches names by equality.
type ExactResolver struct {
	all []BuildTarget
}

// NewExactResolver creates an exact-match resolver over all.
func NewExactResolver(all []BuildTarget) *ExactResolver {
	return &ExactResolver{all: all}
}

// Resolve returns every target when nothing is requested.
func (r *ExactResolver) Resolve(requested []string) ([]BuildTarget, error) {
	return resolve(r.all, requested, nil)
}

// FuzzyResolver falls back to prefix and then substring matching when a name has no
// exact match. A single token may yield several targets.
type FuzzyResolver struct {
	all []BuildTarget
}

// NewFuzzyResolver creates a fuzzy resolver over all.
func NewFuzzyResolver(all []BuildTarget) *FuzzyResolver {
	return &FuzzyResolver{all: all}
}

// Resolve returns every target when nothing is requested.
func (r *FuzzyResolver) Resolve(requested []string) ([]BuildTarget, error) {
	return resolve(r.all, requested, fuzzyMatch)
}

func resolve(all []BuildTarget, requested []string, fallback func([]BuildTarget, string) []BuildTarget) ([]BuildTarget, error) {
	if len(requested) == 0 {
		return append([]BuildTarget(nil), all...), nil
	}

	var out []BuildTarget
	seen := make(map[string]bool)
	add := func(t BuildTarget) {
		if !seen[t.Name] {
			seen[t.Name] = true
			out = append(out, t)
		}
	}

	for _, name := range requested {
		if t, ok := exactMatch(all, name); ok {
			add(t)
			continue
		}
		var matches []BuildTarget
		if fallback != nil {
			matches = fallback(all, name)
		}
		if len(matches) == 0 {
			return nil, &UnknownTargetError{Name: name}
		}
		for _, t := range matches {
			add(t)
		}
	}
	return out, nil
}

func exactMatch(all []BuildTarget, name string) (BuildTarget, bool) {
	for _, t := range all {
		if t.Name == name {
			return t, true
		}
	}
	return BuildTarget{}, false
}

// fuzzyMatch returns prefix matches when there are any, substring matches otherwise.
func fuzzyMatch(all []BuildTarget, name string) []BuildTarget {
	if name == "" {
		return nil
	}
	var prefix, substr []BuildTarget
	for _, t := range all {
		switch {
		case strings.HasPrefix(t.Name, name):
			prefix = append(prefix, t)
		case strings.Contains(t.Name, name):
			substr = append(substr, t)
		}
	}
	if len(prefix) > 0 {
		return prefix
	}
	return substr
}
