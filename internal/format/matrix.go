package format

import "sort"

// Resolve expands the formats for one package. A non-empty override replaces the
// declared list; an empty declared list falls back to Defaults.
//
// The result is in canonical order so that esm is always built before the
// browser kinds that read its artifact.
func Resolve(declared, override []string) ([]Kind, error) {
	if len(override) > 0 {
		kinds, err := parseAll(override)
		if err != nil {
			return nil, err
		}
		if err := checkDependencies(kinds, override); err != nil {
			return nil, err
		}
		return kinds, nil
	}

	if len(declared) == 0 {
		return Defaults(), nil
	}
	return parseAll(declared)
}

func parseAll(tokens []string) ([]Kind, error) {
	seen := make(map[Kind]bool, len(tokens))
	kinds := make([]Kind, 0, len(tokens))
	for _, tok := range tokens {
		k, err := Parse(tok)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	sort.SliceStable(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds, nil
}

// checkDependencies rejects browser kinds whose esm input is not part of the same request.
func checkDependencies(kinds []Kind, tokens []string) error {
	hasESM := false
	needsESM := false
	for _, k := range kinds {
		if k == ESM {
			hasESM = true
		}
		if k.Spec().ConsumesESM {
			needsESM = true
		}
	}
	if needsESM && !hasESM {
		return &DependentFormatError{Requested: tokens}
	}
	return nil
}
