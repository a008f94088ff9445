/*
 * mm.go, part of janus.
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

// Package mm implements the classical (MM) side of the QM/MM evaluation: an Engine
// interface and Classical, a pairwise Coulomb plus Lennard-Jones evaluator for
// rigid molecules and ions.
package mm

import (
	"context"
	"fmt"
	"math"

	"github.com/zhenglz/janus"
	v3 "github.com/zhenglz/janus/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Engine is a classical force field evaluator.
type Engine interface {
	Name() string
	//Compute returns the energy of the atoms in subset, interacting only among themselves,
	//and the forces on them. A nil subset means all the atoms.
	Compute(ctx context.Context, coords *v3.Matrix, subset []int) (*Output, error)
}

// Output is the result of an MM evaluation. Energies in kcal/mol, forces in kcal/mol/A.
type Output struct {
	Energy float64
	Terms  map[string]float64
	Forces map[int]r3.Vec
}

// Classical computes the non-bonded interactions between atoms of different
// groups. Pairs in the same group, and pairs 1-2 or 1-3 bonded, are excluded.
type Classical struct {
	top     *janus.Topology
	cutoff  float64 //0 means no cutoff
	groupOf []int
	excl    map[[2]int]bool
}

// NewClassical returns an evaluator for top, which must have charges and Lennard-Jones
// parameters assigned (see Assign). A cutoff of 0 means no cutoff.
func NewClassical(top *janus.Topology, cutoff float64) (*Classical, error) {
	if top == nil || top.Len() == 0 {
		return nil, janus.NewError(janus.ErrConfiguration, "NewClassical", "empty topology")
	}
	if cutoff < 0 {
		return nil, janus.NewError(janus.ErrConfiguration, "NewClassical", fmt.Sprintf("negative cutoff %g", cutoff))
	}
	C := &Classical{top: top, cutoff: cutoff, groupOf: janus.GroupOf(top.Groups(), top.Len())}
	C.excl = make(map[[2]int]bool)
	for i := 0; i < top.Len(); i++ {
		for _, j := range top.Neighbors(i) {
			C.exclude(i, j)
			for _, k := range top.Neighbors(j) {
				C.exclude(i, k)
			}
		}
	}
	return C, nil
}

func (C *Classical) exclude(i, j int) {
	if i == j {
		return
	}
	if i > j {
		i, j = j, i
	}
	C.excl[[2]int{i, j}] = true
}

// Excluded returns true if the pair i, j does not interact.
func (C *Classical) Excluded(i, j int) bool {
	if C.groupOf[i] == C.groupOf[j] {
		return true
	}
	if i > j {
		i, j = j, i
	}
	return C.excl[[2]int{i, j}]
}

func (C *Classical) Name() string { return "classical" }

// Cutoff returns the interaction cutoff, 0 if there is none.
func (C *Classical) Cutoff() float64 { return C.cutoff }

// Compute returns the Coulomb and Lennard-Jones energies and forces of the atoms in subset.
func (C *Classical) Compute(ctx context.Context, coords *v3.Matrix, subset []int) (*Output, error) {
	if coords.NVecs() != C.top.Len() {
		return nil, fmt.Errorf("mm: %d coordinates for %d atoms: %w", coords.NVecs(), C.top.Len(), janus.ErrEngineFailure)
	}
	if subset == nil {
		subset = make([]int, C.top.Len())
		for i := range subset {
			subset[i] = i
		}
	}
	pos := make([]r3.Vec, len(subset))
	for i, a := range subset {
		if a < 0 || a >= C.top.Len() {
			return nil, fmt.Errorf("mm: atom %d out of range: %w", a, janus.ErrEngineFailure)
		}
		pos[i] = coords.Vec(a)
	}
	forces := make([]r3.Vec, len(subset))
	var coul, lj float64
	for i, a := range subset {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ai := C.top.Atom(a)
		for j := i + 1; j < len(subset); j++ {
			b := subset[j]
			if C.Excluded(a, b) {
				continue
			}
			d := r3.Sub(pos[i], pos[j])
			r := r3.Norm(d)
			if C.cutoff > 0 && r > C.cutoff {
				continue
			}
			if r == 0 {
				return nil, fmt.Errorf("mm: atoms %d and %d overlap: %w", a, b, janus.ErrEngineFailure)
			}
			bj := C.top.Atom(b)
			ec, dc := coulomb(ai.Charge, bj.Charge, r)
			el, dl := lennardJones(ai, bj, r)
			coul += ec
			lj += el
			f := r3.Scale(-(dc+dl)/r, d) //force on a
			forces[i] = r3.Add(forces[i], f)
			forces[j] = r3.Sub(forces[j], f)
		}
	}
	out := &Output{
		Energy: coul + lj,
		Terms:  map[string]float64{"coulomb": coul, "lennard-jones": lj},
		Forces: make(map[int]r3.Vec, len(subset)),
	}
	for i, a := range subset {
		out.Forces[a] = forces[i]
	}
	return out, nil
}

// coulomb returns the energy and its derivative with respect to r.
func coulomb(q1, q2, r float64) (float64, float64) {
	if q1 == 0 || q2 == 0 {
		return 0, 0
	}
	e := janus.CoulombConst * q1 * q2 / r
	return e, -e / r
}

// lennardJones uses the Lorentz-Berthelot combination rules.
func lennardJones(a, b *janus.Atom, r float64) (float64, float64) {
	eps := math.Sqrt(a.Epsilon * b.Epsilon)
	if eps == 0 {
		return 0, 0
	}
	sigma := 0.5 * (a.Sigma + b.Sigma)
	sr6 := math.Pow(sigma/r, 6)
	sr12 := sr6 * sr6
	e := 4 * eps * (sr12 - sr6)
	return e, 4 * eps * (-12*sr12 + 6*sr6) / r
}
