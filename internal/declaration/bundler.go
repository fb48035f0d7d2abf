package declaration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dosanma1/bundlekit/internal/target"
	"github.com/dosanma1/bundlekit/internal/ui"
	"github.com/dosanma1/bundlekit/pkg/xos"
)

// DefaultFragmentsDir holds hand-written declaration files appended to the rollup.
const DefaultFragmentsDir = "types"

// Bundler runs the declaration tool for a target and merges extra fragments.
type Bundler struct {
	tool         Tool
	fragmentsDir string
	out          io.Writer
	logger       zerolog.Logger
}

// NewBundler creates a Bundler. Status lines are written to out.
func NewBundler(tool Tool, fragmentsDir string, out io.Writer, logger zerolog.Logger) *Bundler {
	if fragmentsDir == "" {
		fragmentsDir = DefaultFragmentsDir
	}
	return &Bundler{
		tool:         tool,
		fragmentsDir: fragmentsDir,
		out:          out,
		logger:       logger,
	}
}

// Bundle rolls up the declarations of t. Targets without a types path are skipped.
// The intermediate compiler output is removed whether or not the rollup succeeds.
func (b *Bundler) Bundle(ctx context.Context, t target.BuildTarget) error {
	if t.Types == "" {
		return nil
	}

	fmt.Fprintln(b.out)
	fmt.Fprintln(b.out, ui.WarningStyle.Render(fmt.Sprintf("Rolling up type definitions for %s...", t.Name)))

	var result error
	counts, err := b.tool.Extract(ctx, t.Root)
	if err == nil {
		if err := b.mergeFragments(t); err != nil {
			result = &BundleFailure{Target: t.Name, Err: err}
		} else {
			fmt.Fprintln(b.out, ui.SuccessStyle.Render("API Extractor completed successfully."))
		}
	} else {
		fmt.Fprintf(b.out, "API Extractor completed with %d errors and %d warnings\n", counts.Errors, counts.Warnings)
		result = &BundleFailure{Target: t.Name, Errors: counts.Errors, Warnings: counts.Warnings, Err: err}
	}

	if err := CleanScaffolding(t); err != nil {
		b.logger.Warn().Err(err).Str("target", t.Name).Msg("failed to remove declaration scaffolding")
	}
	return result
}

// mergeFragments appends every file of the fragments dir, in lexical order, to the
// rolled-up types file as existing + "\n" + fragments joined by "\n".
func (b *Bundler) mergeFragments(t target.BuildTarget) error {
	dir := filepath.Join(t.Root, b.fragmentsDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	typesPath := filepath.Join(t.Root, t.Types)
	existing, err := os.ReadFile(typesPath)
	if err != nil {
		return fmt.Errorf("failed to read rolled-up declarations: %w", err)
	}

	readers := []io.Reader{bytes.NewReader(existing), bytes.NewReader([]byte("\n"))}
	first := true
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read fragment %s: %w", entry.Name(), err)
		}
		if !first {
			readers = append(readers, bytes.NewReader([]byte("\n")))
		}
		readers = append(readers, bytes.NewReader(data))
		first = false
	}

	b.logger.Debug().Str("target", t.Name).Str("types", typesPath).Int("fragments", len(entries)).Msg("merging declaration fragments")
	return xos.WriteReader(typesPath, io.MultiReader(readers...), 0o644)
}

// CleanScaffolding removes the intermediate output the declaration compile leaves in dist.
func CleanScaffolding(t target.BuildTarget) error {
	return xos.RemovePaths(
		filepath.Join(t.DistDir(), "packages"),
		filepath.Join(t.DistDir(), "index.js"),
	)
}
