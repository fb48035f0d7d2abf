// Package orchestrator sequences type-checking, compiling, declaration bundling and
// size reporting for a set of targets.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dosanma1/bundlekit/internal/compiler"
	"github.com/dosanma1/bundlekit/internal/compose"
	"github.com/dosanma1/bundlekit/internal/format"
	"github.com/dosanma1/bundlekit/internal/size"
	"github.com/dosanma1/bundlekit/internal/target"
	"github.com/dosanma1/bundlekit/internal/ui"
	"github.com/dosanma1/bundlekit/pkg/xos"
)

// TypeChecker runs the global type-check gate.
type TypeChecker interface {
	TypeCheck(ctx context.Context) error
}

// TypeCheckFunc adapts a function to TypeChecker.
type TypeCheckFunc func(ctx context.Context) error

// TypeCheck calls f.
func (f TypeCheckFunc) TypeCheck(ctx context.Context) error {
	return f(ctx)
}

// DeclarationBundler rolls up a target's declarations.
type DeclarationBundler interface {
	Bundle(ctx context.Context, t target.BuildTarget) error
}

// SizeReporter measures browser artifacts.
type SizeReporter interface {
	Report(targets []target.BuildTarget) ([]size.Report, error)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	// Targets are all known targets in declared order.
	Targets      []target.BuildTarget
	Composer     *compose.Composer
	Compiler     compiler.Compiler
	TypeChecker  TypeChecker
	Declarations DeclarationBundler
	Sizes        SizeReporter

	// Out receives status lines. Defaults to os.Stdout.
	Out io.Writer
	// ProgressOut receives the progress bar. Defaults to os.Stderr.
	ProgressOut io.Writer
	Logger      zerolog.Logger
}

// Plan is the composed work for one target.
type Plan struct {
	Target   target.BuildTarget `json:"target" yaml:"target"`
	Kinds    []format.Kind      `json:"formats" yaml:"formats"`
	Variants []compose.Variant  `json:"variants" yaml:"variants"`
}

// Result is the outcome of a run.
type Result struct {
	ExitCode int
	State    State
	// Trace lists the distinct states the run passed through.
	Trace    []State
	Built    []target.BuildTarget
	Sizes    []size.Report
	Compiles int
	Err      error
}

// Orchestrator drives a build run.
type Orchestrator struct {
	deps Deps
	opts BuildOptions
}

// New creates an Orchestrator.
func New(deps Deps, opts BuildOptions) *Orchestrator {
	if deps.Composer == nil {
		deps.Composer = compose.New()
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.ProgressOut == nil {
		deps.ProgressOut = os.Stderr
	}
	return &Orchestrator{deps: deps, opts: opts.Normalize()}
}

// Options returns the normalized build options.
func (o *Orchestrator) Options() BuildOptions {
	return o.opts
}

// Plan resolves targets and formats and composes every variant without running anything.
func (o *Orchestrator) Plan(requested []string) ([]Plan, error) {
	targets, err := target.Resolve(o.deps.Targets, requested, o.opts.FuzzyAll)
	if err != nil {
		return nil, err
	}

	plans := make([]Plan, 0, len(targets))
	for _, t := range targets {
		kinds, err := format.Resolve(t.Formats, o.opts.Formats)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		if o.opts.ExtractTypes() {
			kinds = append(kinds, format.Declarations)
		}
		variants, err := o.deps.Composer.Plan(t, kinds, o.opts.ComposeOptions())
		if err != nil {
			return nil, err
		}
		plans = append(plans, Plan{Target: t, Kinds: kinds, Variants: variants})
	}
	return plans, nil
}

// run holds the mutable state of one Run call.
type run struct {
	*Orchestrator
	machine     *machine
	bar         *progressbar.ProgressBar
	compiles    atomic.Int64
	browserProd atomic.Bool

	mu        sync.Mutex
	built     map[string]bool
	bundleErr []error
}

// Run executes the pipeline. Every target and format is validated before the first
// subprocess starts.
func (o *Orchestrator) Run(ctx context.Context, requested []string) Result {
	r := &run{Orchestrator: o, machine: newMachine(), built: make(map[string]bool)}

	plans, err := o.Plan(requested)
	if err != nil {
		return r.abort(err)
	}

	if o.opts.TypeCheck && o.deps.TypeChecker != nil {
		r.fire(EventTypeCheck)
		o.deps.Logger.Debug().Msg("type checking")
		if err := o.deps.TypeChecker.TypeCheck(ctx); err != nil {
			fmt.Fprintln(o.deps.Out, ui.ErrorStyle.Render(TypeCheckMessage))
			return r.abort(&TypeCheckFailure{Err: err})
		}
	}

	if o.opts.Progress {
		r.bar = newProgressBar(o.deps.ProgressOut, countVariants(plans))
	}

	if o.opts.Parallel > 1 {
		err = r.buildParallel(ctx, plans)
	} else {
		err = r.buildSequential(ctx, plans)
	}
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	if err != nil {
		return r.abort(err)
	}

	built := r.builtInOrder(plans)
	result := Result{Built: built}

	if r.browserProd.Load() && o.deps.Sizes != nil {
		r.fire(EventReport)
		reports, err := o.deps.Sizes.Report(built)
		if err != nil {
			o.deps.Logger.Warn().Err(err).Msg("size report incomplete")
		}
		size.Render(o.deps.Out, reports)
		result.Sizes = reports
	}

	r.fire(EventFinish)
	result.State = r.machine.current()
	result.Trace = r.machine.history()
	result.Compiles = int(r.compiles.Load())
	if len(r.bundleErr) > 0 {
		result.Err = errors.Join(r.bundleErr...)
		result.ExitCode = ExitFailure
	}
	return result
}

func (r *run) buildSequential(ctx context.Context, plans []Plan) error {
	for _, p := range plans {
		if err := r.buildTarget(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// buildParallel builds targets concurrently. Variants of one target stay sequential
// so the esm artifact exists before its browser bundles; the first compile failure
// cancels the rest.
func (r *run) buildParallel(ctx context.Context, plans []Plan) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallel)
	for _, p := range plans {
		p := p
		g.Go(func() error {
			return r.buildTarget(gctx, p)
		})
	}
	return g.Wait()
}

func (r *run) buildTarget(ctx context.Context, p Plan) error {
	t := p.Target
	log := r.deps.Logger.With().Str("target", t.Name).Logger()

	if !r.opts.HasOverride() {
		log.Debug().Str("dir", t.DistDir()).Msg("cleaning output")
		if err := xos.RemovePaths(t.DistDir()); err != nil {
			return fmt.Errorf("failed to clean %s: %w", t.DistDir(), err)
		}
	}

	fmt.Fprintf(r.deps.Out, "%s %s\n", ui.IconPackage, ui.TitleStyle.Render(fmt.Sprintf("Building %s", t.Name)))
	for _, v := range p.Variants {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.fire(EventCompile)
		log.Debug().Str("variant", v.Name()).Str("mode", v.Mode()).Msg("compiling")

		err := r.deps.Compiler.Compile(ctx, compiler.Invocation{Root: t.Root, Variant: v})
		r.compiles.Add(1)
		if r.bar != nil {
			_ = r.bar.Add(1)
		}
		if err != nil {
			fmt.Fprintf(r.deps.Out, "%s %s\n", ui.IconError, ui.ErrorStyle.Render(fmt.Sprintf("Build failed for %s (%s)", t.Name, v.Name())))
			return &CompileFailure{Target: t.Name, Variant: v.Name(), Err: err}
		}
		if v.Production && v.Kind.IsBrowser() {
			r.browserProd.Store(true)
		}
	}

	if r.opts.ExtractTypes() && r.deps.Declarations != nil {
		r.fire(EventBundle)
		if err := r.deps.Declarations.Bundle(ctx, t); err != nil {
			r.fire(EventBundleFailed)
			log.Error().Err(err).Msg("declaration bundling failed")
			r.mu.Lock()
			r.bundleErr = append(r.bundleErr, err)
			r.mu.Unlock()
		}
	}

	r.mu.Lock()
	r.built[t.Name] = true
	r.mu.Unlock()
	return nil
}

func (r *run) fire(e Event) {
	if err := r.machine.fire(e); err != nil {
		r.deps.Logger.Debug().Err(err).Msg("state transition ignored")
	}
}

func (r *run) abort(err error) Result {
	r.fire(EventFatal)
	r.deps.Logger.Debug().Err(err).Msg("run aborted")
	return Result{
		ExitCode: ExitCodeFor(err),
		State:    r.machine.current(),
		Trace:    r.machine.history(),
		Built:    r.builtSoFar(),
		Compiles: int(r.compiles.Load()),
		Err:      err,
	}
}

func (r *run) builtSoFar() []target.BuildTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []target.BuildTarget
	for _, t := range r.deps.Targets {
		if r.built[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

// builtInOrder returns the built targets in resolver order.
func (r *run) builtInOrder(plans []Plan) []target.BuildTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]target.BuildTarget, 0, len(plans))
	for _, p := range plans {
		if r.built[p.Target.Name] {
			out = append(out, p.Target)
		}
	}
	return out
}

func countVariants(plans []Plan) int {
	n := 0
	for _, p := range plans {
		n += len(p.Variants)
	}
	return n
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("compiling"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}
