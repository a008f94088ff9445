/*
 * system.go, part of janus.
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

package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/config"
	"github.com/zhenglz/janus/engine"
	"github.com/zhenglz/janus/history"
	"github.com/zhenglz/janus/logger"
	"github.com/zhenglz/janus/metrics"
	"github.com/zhenglz/janus/mm"
	"github.com/zhenglz/janus/qm"
	"github.com/zhenglz/janus/qmmm"
	v3 "github.com/zhenglz/janus/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// system is everything needed to run steps.
type system struct {
	top      *janus.Topology
	frames   []*v3.Matrix
	driver   *engine.Driver
	store    history.Store
	shutdown func(context.Context) error
}

func (s *system) Close() error {
	if s.shutdown != nil {
		s.shutdown(context.Background())
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// newSystem reads the geometry and builds the engines described by c.
func newSystem(c *config.Config) (*system, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log := logger.WithComponent("setup")
	if c.System.Geometry == "" {
		return nil, janus.NewError(janus.ErrConfiguration, "newSystem", "no geometry file")
	}
	top, frames, err := janus.PDBRead(c.System.Geometry)
	if err != nil {
		return nil, err
	}
	top.SetCharge(c.System.Charge)
	top.SetMulti(c.System.Multi)
	if c.System.GuessBonds && !top.HasBonds() {
		if err := janus.AssignBonds(frames[0], top); err != nil {
			return nil, err
		}
	}
	params := mm.TIP3P()
	if c.MM.Params != "" {
		extra, err := mm.LoadParams(c.MM.Params)
		if err != nil {
			return nil, err
		}
		params.Merge(extra)
	}
	if missing := mm.Assign(top, params); len(missing) > 0 {
		log.Warn("atoms without MM parameters", "count", len(missing), "first", missing[0])
	}
	classical, err := mm.NewClassical(top, c.MM.Cutoff)
	if err != nil {
		return nil, err
	}
	xtb := qm.NewXTBHandle()
	xtb.SetCommand(c.QM.Command)
	xtb.SetnCPU(c.QM.CPUs)
	xtb.SetWorkDir(c.QM.WorkDir)
	xtb.KeepFiles(c.QM.KeepFiles)
	xtb.SetLogger(logger.WithComponent("xtb"))
	embedding, err := qmmm.ParseEmbedding(c.QMMM.Embedding)
	if err != nil {
		return nil, err
	}
	opts := []qmmm.Option{
		qmmm.WithEmbedding(embedding),
		qmmm.WithLinkAtoms(c.QMMM.LinkAtoms),
		qmmm.WithCalc(&qm.Calc{Method: c.QM.Method, Dielectric: c.QM.Dielectric, Others: c.QM.Others}),
		qmmm.WithLogger(logger.WithComponent("qmmm")),
	}
	if c.QMMM.Charge != nil {
		opts = append(opts, qmmm.WithCharge(*c.QMMM.Charge))
	}
	eval, err := qmmm.New(top, xtb, classical, opts...)
	if err != nil {
		return nil, err
	}
	s := &system{top: top, frames: frames}
	extra := []engine.Option{engine.WithLogger(logger.WithComponent("engine"))}
	if c.Metrics.Enabled {
		extra = append(extra, engine.WithMetrics(metrics.New(nil)))
		s.shutdown = metrics.StartServer(c.Metrics.Addr)
	}
	eng, err := engine.New(top, engine.Options{
		Center:        c.System.Center,
		Locator:       c.Locator(),
		Scheme:        c.Partition.Scheme,
		Kernel:        c.Partition.Kernel,
		Modified:      c.Partition.Modified,
		Workers:       c.Engine.Workers,
		MaxPartitions: c.Engine.MaxPartitions,
	}, eval, extra...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store, err = c.OpenHistory()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.driver = engine.NewDriver(eng, s.store)
	log.Info("system ready", "atoms", top.Len(), "frames", len(frames), "scheme", eng.Scheme(), "session", s.driver.Session())
	return s, nil
}

// writeForces writes one line per atom: the 0-based index and the force in kcal/mol/A.
func writeForces(w io.Writer, forces map[int]r3.Vec) error {
	atoms := make([]int, 0, len(forces))
	for a := range forces {
		atoms = append(atoms, a)
	}
	sort.Ints(atoms)
	for _, a := range atoms {
		f := forces[a]
		if _, err := fmt.Fprintf(w, "%6d %16.8f %16.8f %16.8f\n", a, f.X, f.Y, f.Z); err != nil {
			return err
		}
	}
	return nil
}
