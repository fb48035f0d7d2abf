package target

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targets(names ...string) []BuildTarget {
	out := make([]BuildTarget, len(names))
	for i, n := range names {
		out[i] = BuildTarget{Name: n}
	}
	return out
}

func names(ts []BuildTarget) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func TestResolve_EmptyRequestReturnsAll(t *testing.T) {
	all := targets("falcon", "core", "shared")
	for _, fuzzy := range []bool{false, true} {
		got, err := Resolve(all, nil, fuzzy)
		require.NoError(t, err)
		assert.Equal(t, []string{"falcon", "core", "shared"}, names(got))
	}
}

func TestExactResolver(t *testing.T) {
	all := targets("falcon", "falcon-plugin", "core")

	got, err := NewExactResolver(all).Resolve([]string{"core", "falcon"})
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "falcon"}, names(got))

	_, err = NewExactResolver(all).Resolve([]string{"fal"})
	var unknown *UnknownTargetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "fal", unknown.Name)
}

func TestFuzzyResolver(t *testing.T) {
	all := targets("falcon", "falcon-plugin", "core", "runtime-core")

	tests := []struct {
		name      string
		requested []string
		want      []string
	}{
		{"exact wins over prefix", []string{"falcon"}, []string{"falcon"}},
		{"prefix yields all prefix matches", []string{"fal"}, []string{"falcon", "falcon-plugin"}},
		{"prefix beats substring", []string{"cor"}, []string{"core"}},
		{"substring fallback", []string{"plug"}, []string{"falcon-plugin"}},
		{"dedupes across tokens", []string{"falcon", "fal"}, []string{"falcon", "falcon-plugin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFuzzyResolver(all).Resolve(tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestFuzzyResolver_NoMatch(t *testing.T) {
	_, err := New(targets("falcon"), true).Resolve([]string{"zebra"})
	var unknown *UnknownTargetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "zebra", unknown.Name)
}
