// Package watch runs a continuous development build of a single target.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dosanma1/bundlekit/internal/compiler"
	"github.com/dosanma1/bundlekit/internal/compose"
	"github.com/dosanma1/bundlekit/internal/format"
	"github.com/dosanma1/bundlekit/internal/target"
	"github.com/dosanma1/bundlekit/internal/ui"
)

// Options configures a watch session.
type Options struct {
	// Formats overrides the target's declared formats.
	Formats   []string
	SourceMap bool
	// DefaultTarget is used when no name is given.
	DefaultTarget string
	Debounce      time.Duration
	Ignore        []string
	// Picker chooses among several fuzzy matches. Defaults to ui.FirstPicker.
	Picker ui.Picker
}

// Session is the resolved single-shot configuration of a watch.
type Session struct {
	Target   target.BuildTarget
	Variants []compose.Variant
}

// Coordinator builds the development variants of one target and rebuilds on change.
type Coordinator struct {
	targets  []target.BuildTarget
	composer *compose.Composer
	compiler compiler.Compiler
	opts     Options
	out      io.Writer
	logger   zerolog.Logger

	// built is signalled after every build pass; used by tests.
	built func(pass int, err error)
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(targets []target.BuildTarget, composer *compose.Composer, c compiler.Compiler, opts Options, out io.Writer, logger zerolog.Logger) *Coordinator {
	if composer == nil {
		composer = compose.New()
	}
	if out == nil {
		out = os.Stdout
	}
	if len(opts.Ignore) == 0 {
		opts.Ignore = DefaultIgnore
	}
	if opts.Picker == nil {
		opts.Picker = ui.FirstPicker{}
	}
	return &Coordinator{
		targets:  targets,
		composer: composer,
		compiler: c,
		opts:     opts,
		out:      out,
		logger:   logger,
	}
}

// Prepare resolves the target and composes its development variants.
func (c *Coordinator) Prepare(name string) (*Session, error) {
	if name == "" {
		name = c.opts.DefaultTarget
	}
	matches, err := target.NewFuzzyResolver(c.targets).Resolve([]string{name})
	if err != nil {
		return nil, err
	}

	t := matches[0]
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		choice, err := c.opts.Picker.Pick("Select a target to watch", names)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if m.Name == choice {
				t = m
			}
		}
	}

	kinds, err := format.Resolve(t.Formats, c.opts.Formats)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}
	variants, err := c.composer.Plan(t, kinds, compose.Options{Production: false, SourceMap: c.opts.SourceMap})
	if err != nil {
		return nil, err
	}
	return &Session{Target: t, Variants: variants}, nil
}

// Watch builds once, then rebuilds after every debounced change under the target's
// src directory. Compile failures are reported and the session continues. It returns
// nil when ctx is cancelled.
func (c *Coordinator) Watch(ctx context.Context, name string) error {
	session, err := c.Prepare(name)
	if err != nil {
		return err
	}
	t := session.Target

	names := make([]string, len(session.Variants))
	for i, v := range session.Variants {
		names[i] = v.Name()
	}
	fmt.Fprintf(c.out, "%s %s %s\n", ui.IconWatch, ui.TitleStyle.Render(fmt.Sprintf("Watching %s", t.Name)), ui.HelpStyle.Render(strings.Join(names, ", ")))

	pass := 0
	c.rebuild(ctx, session, &pass)

	srcDir := filepath.Join(t.Root, "src")
	w, err := NewWatcher(WatcherConfig{Dir: srcDir, Ignore: c.opts.Ignore, Debounce: c.opts.Debounce})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", srcDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-w.Events():
			c.logger.Debug().Str("path", event.Path).Stringer("type", event.Type).Msg("change detected")
			drain(w.Events())
			c.rebuild(ctx, session, &pass)
		case err := <-w.Errors():
			c.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// rebuild compiles every variant in order and stops at the first failure.
func (c *Coordinator) rebuild(ctx context.Context, s *Session, pass *int) {
	*pass++
	start := time.Now()
	var failed error
	for _, v := range s.Variants {
		if ctx.Err() != nil {
			return
		}
		if err := c.compiler.Compile(ctx, compiler.Invocation{Root: s.Target.Root, Variant: v}); err != nil {
			fmt.Fprintf(c.out, "%s %s\n", ui.IconError, ui.ErrorStyle.Render(fmt.Sprintf("Build failed for %s (%s)", s.Target.Name, v.Name())))
			c.logger.Error().Err(err).Str("target", s.Target.Name).Str("variant", v.Name()).Msg("compile failed")
			failed = err
			break
		}
	}
	if failed == nil {
		fmt.Fprintf(c.out, "%s %s\n", ui.IconSuccess, ui.SuccessStyle.Render(fmt.Sprintf("Built %s in %s", s.Target.Name, time.Since(start).Round(time.Millisecond))))
	}
	if c.built != nil {
		c.built(*pass, failed)
	}
}

// drain discards queued events so one rebuild covers a burst of changes.
func drain(events <-chan Event) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}
