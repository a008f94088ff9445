/*
 * driver.go, part of janus.
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

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhenglz/janus/history"
	v3 "github.com/zhenglz/janus/v3"
)

// Driver feeds geometries to an Engine, one step at a time, keeping the run counter
// and saving each result to a history store. The counter only advances on
// successful steps, so run ids have no gaps.
type Driver struct {
	mu      sync.Mutex
	engine  *Engine
	store   history.Store //may be nil
	session string
	runID   int
}

// NewDriver returns a Driver for e with a new session id. store can be nil.
func NewDriver(e *Engine, store history.Store) *Driver {
	return &Driver{engine: e, store: store, session: uuid.NewString()}
}

// Session returns the id of the session, which tags the history records.
func (D *Driver) Session() string { return D.session }

// RunID returns the id the next step will get.
func (D *Driver) RunID() int {
	D.mu.Lock()
	defer D.mu.Unlock()
	return D.runID
}

// Next runs a step on coords. Steps are serialized.
func (D *Driver) Next(ctx context.Context, coords *v3.Matrix) (*StepResult, error) {
	D.mu.Lock()
	defer D.mu.Unlock()
	res, err := D.engine.Step(ctx, D.runID, coords)
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", D.runID, err)
	}
	if D.store != nil {
		if err := D.store.Save(ctx, D.Record(res)); err != nil {
			return nil, fmt.Errorf("run %d: %w", D.runID, err)
		}
	}
	D.runID++
	return res, nil
}

// Record builds the history record of res.
func (D *Driver) Record(res *StepResult) *history.Record {
	r := &history.Record{
		Session: D.session,
		RunID:   res.RunID,
		Time:    time.Now().UTC(),
		Scheme:  D.engine.Scheme(),
		Energy:  res.Energy,
		Forces:  make(map[int][3]float64, len(res.Forces)),
	}
	for i, f := range res.Forces {
		r.Forces[i] = [3]float64{f.X, f.Y, f.Z}
	}
	for _, p := range res.Partitions {
		r.Partitions = append(r.Partitions, history.PartitionRecord{ID: p.ID, Groups: p.Groups, Energy: p.Energy, Weight: p.Weight})
	}
	for _, g := range res.Zone.Buffer {
		r.BufferGroups = append(r.BufferGroups, history.GroupRecord{ID: g.ID, MolName: g.MolName, MolID: g.MolID, Chain: g.Chain, R: g.R, S: g.S})
	}
	return r
}
