/*
 * engine.go, part of janus.
 *
 * Copyright 2024 The janus authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package engine runs adaptive QM/MM steps: it locates the buffer zone, computes
// the switching functions, evaluates every partition on a bounded pool of workers
// and interpolates the results.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/aqmmm"
	"github.com/zhenglz/janus/buffer"
	"github.com/zhenglz/janus/metrics"
	"github.com/zhenglz/janus/switching"
	v3 "github.com/zhenglz/janus/v3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// Evaluator gives the energy and forces of the whole system with a given QM region.
// qmmm.Evaluator implements it. It must be safe for concurrent use.
type Evaluator interface {
	Evaluate(ctx context.Context, coords *v3.Matrix, qmAtoms []int) (float64, map[int]r3.Vec, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, coords *v3.Matrix, qmAtoms []int) (float64, map[int]r3.Vec, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, coords *v3.Matrix, qmAtoms []int) (float64, map[int]r3.Vec, error) {
	return f(ctx, coords, qmAtoms)
}

// Options are the settings of an Engine.
type Options struct {
	Center   []int           //atoms defining the QM center
	Locator  *buffer.Options //nil means buffer.DefaultOptions()
	Scheme   string
	Kernel   string //"" means quintic
	Modified bool   //skip the switching function gradient correction
	Workers  int    //partitions evaluated at the same time, 0 means 1
	//MaxPartitions aborts steps needing more partitions than this. 0 means no limit.
	MaxPartitions int
}

// Engine runs adaptive QM/MM steps for one system. Its methods are safe for concurrent use.
type Engine struct {
	top     *janus.Topology
	opts    Options
	scheme  aqmmm.Scheme
	kernel  switching.Kernel
	eval    Evaluator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(E *Engine) { E.logger = l } }

// WithMetrics sets the collectors the engine reports to.
func WithMetrics(m *metrics.Metrics) Option { return func(E *Engine) { E.metrics = m } }

// New returns an Engine for the system top. All the configuration problems are
// reported here, as janus.ErrConfiguration errors.
func New(top *janus.Topology, opts Options, eval Evaluator, extra ...Option) (*Engine, error) {
	if top == nil || top.Len() == 0 {
		return nil, janus.NewError(janus.ErrConfiguration, "engine.New", "empty topology")
	}
	if eval == nil {
		return nil, janus.NewError(janus.ErrConfiguration, "engine.New", "no evaluator")
	}
	if len(opts.Center) == 0 {
		return nil, janus.NewError(janus.ErrConfiguration, "engine.New", "empty QM center")
	}
	for _, a := range opts.Center {
		if a < 0 || a >= top.Len() {
			return nil, janus.NewError(janus.ErrConfiguration, "engine.New", fmt.Sprintf("QM center atom %d out of range", a))
		}
	}
	if opts.Locator == nil {
		opts.Locator = buffer.DefaultOptions()
	}
	if err := opts.Locator.Check(); err != nil {
		return nil, janus.ErrDecorate(err, "engine.New")
	}
	if opts.Workers < 0 || opts.MaxPartitions < 0 {
		return nil, janus.NewError(janus.ErrConfiguration, "engine.New", fmt.Sprintf("invalid workers (%d) or partition limit (%d)", opts.Workers, opts.MaxPartitions))
	}
	if opts.Workers == 0 {
		opts.Workers = 1
	}
	scheme, err := aqmmm.New(opts.Scheme)
	if err != nil {
		return nil, janus.ErrDecorate(err, "engine.New")
	}
	kernel, err := switching.NewKernel(opts.Kernel)
	if err != nil {
		return nil, janus.ErrDecorate(err, "engine.New")
	}
	opts.Center = append([]int(nil), opts.Center...)
	E := &Engine{top: top, opts: opts, scheme: scheme, kernel: kernel, eval: eval, logger: slog.Default()}
	for _, o := range extra {
		o(E)
	}
	return E, nil
}

// Scheme returns the name of the interpolation scheme.
func (E *Engine) Scheme() string { return E.scheme.Name() }

// StepResult is the outcome of one step.
type StepResult struct {
	RunID      int
	Zone       *buffer.Zone
	Partitions []*aqmmm.Partition //the QM core first
	Energy     float64            //kcal/mol
	Forces     map[int]r3.Vec     //kcal/mol/A
	Correction map[int]r3.Vec     //nil for the modified variant or without buffer groups
	Elapsed    time.Duration
}

// Step computes the interpolated energy and forces for the geometry coords. A step
// is all or nothing: if any partition fails, the rest are cancelled and the error,
// naming the partition, is returned.
func (E *Engine) Step(ctx context.Context, runID int, coords *v3.Matrix) (*StepResult, error) {
	start := time.Now()
	res, err := E.step(ctx, runID, coords)
	elapsed := time.Since(start)
	if err != nil {
		E.metrics.ObserveStep(E.scheme.Name(), elapsed, 0, 0, 0, err)
		E.logger.Error("step failed", "run", runID, "error", err)
		return nil, err
	}
	res.Elapsed = elapsed
	E.metrics.ObserveStep(E.scheme.Name(), elapsed, len(res.Zone.Buffer), len(res.Partitions), res.Energy, nil)
	E.logger.Info("step", "run", runID, "scheme", E.scheme.Name(), "qm_atoms", len(res.Zone.QMAtoms),
		"buffer_groups", len(res.Zone.Buffer), "partitions", len(res.Partitions), "energy", res.Energy, "elapsed", elapsed)
	return res, nil
}

func (E *Engine) step(ctx context.Context, runID int, coords *v3.Matrix) (*StepResult, error) {
	if coords == nil {
		return nil, janus.NewError(janus.ErrConfiguration, "Engine.Step", "no coordinates")
	}
	//evaluators get a private copy
	coords = coords.Copy()
	loc := E.opts.Locator
	zone, err := buffer.Locate(E.opts.Center, E.top, coords, loc)
	if err != nil {
		return nil, janus.ErrDecorate(err, "Engine.Step")
	}
	switching.Apply(E.kernel, zone.Buffer, loc.RMin, loc.RMax)
	for _, g := range zone.Buffer {
		E.logger.Debug("buffer group", "run", runID, "group", g.ID, "res", g.MolName, "resid", g.MolID, "r", g.R, "s", g.S)
	}
	//checked before anything is built, PAP grows as 2^n
	if err := aqmmm.CheckCount(E.scheme, len(zone.Buffer), E.opts.MaxPartitions); err != nil {
		return nil, janus.ErrDecorate(err, "Engine.Step")
	}
	parts, err := aqmmm.Partitions(E.scheme, zone)
	if err != nil {
		return nil, janus.ErrDecorate(err, "Engine.Step")
	}
	if err := E.evaluate(ctx, coords, parts); err != nil {
		return nil, err
	}
	comb, err := E.scheme.Combine(parts[0], parts[1:], zone, E.opts.Modified)
	if err != nil {
		return nil, janus.ErrDecorate(err, "Engine.Step")
	}
	return &StepResult{
		RunID:      runID,
		Zone:       zone,
		Partitions: parts,
		Energy:     comb.Energy,
		Forces:     comb.Forces,
		Correction: comb.Correction,
	}, nil
}

// evaluate fills the energy and forces of every partition. Each worker writes only
// to its own partition.
func (E *Engine) evaluate(ctx context.Context, coords *v3.Matrix, parts []*aqmmm.Partition) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(E.opts.Workers)
	for _, p := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			energy, forces, err := E.eval.Evaluate(gctx, coords, p.QMAtoms)
			E.metrics.ObservePartition(time.Since(start), err)
			if err != nil {
				return fmt.Errorf("partition %d (groups %v): %w", p.ID, p.Groups, err)
			}
			p.Energy = energy
			p.Forces = forces
			E.logger.Debug("partition", "partition", p.ID, "groups", p.Groups, "qm_atoms", len(p.QMAtoms), "energy", energy, "elapsed", time.Since(start))
			return nil
		})
	}
	return g.Wait()
}
