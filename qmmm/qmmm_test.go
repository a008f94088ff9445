/*
 * qmmm_test.go, part of janus.
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

package qmmm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/mm"
	"github.com/zhenglz/janus/qm"
	v3 "github.com/zhenglz/janus/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// harmonicQM is a QM engine with an analytic energy: a harmonic well around the
// origin for each atom, plus a Coulomb-like term with the point charges.
type harmonicQM struct {
	mu   sync.Mutex
	last *qm.Input
	fail bool
	rows int //if not 0, the number of gradient rows returned
}

func (H *harmonicQM) Name() string { return "harmonic" }

func (H *harmonicQM) Compute(ctx context.Context, in *qm.Input) (*qm.Output, error) {
	H.mu.Lock()
	H.last = in
	H.mu.Unlock()
	if H.fail {
		return nil, janus.NewError(janus.ErrEngineFailure, "harmonicQM", "failed on purpose")
	}
	const k, A = 0.5, 10.0
	n := in.Coords.NVecs()
	out := &qm.Output{Gradient: v3.Zeros(n)}
	if H.rows > 0 {
		out.Gradient = v3.Zeros(H.rows)
	}
	if len(in.PointCharges) > 0 {
		out.PCGradient = v3.Zeros(len(in.PointCharges))
	}
	for i := 0; i < n; i++ {
		x := in.Coords.Vec(i)
		out.Energy += k * r3.Dot(x, x)
		g := r3.Scale(2*k, x)
		for p, pc := range in.PointCharges {
			d := r3.Sub(x, pc.Coords)
			r := r3.Norm(d)
			out.Energy += A * pc.Charge / r
			gp := r3.Scale(-A*pc.Charge/(r*r*r), d)
			g = r3.Add(g, gp)
			out.PCGradient.SetVec(p, r3.Sub(out.PCGradient.Vec(p), gp))
		}
		if i < out.Gradient.NVecs() {
			out.Gradient.SetVec(i, g)
		}
	}
	return out, nil
}

type testAtom struct {
	name, sym, res string
	molid          int
	q, sigma, eps  float64
	pos            r3.Vec
}

func testSystem(Te *testing.T) (*janus.Topology, *v3.Matrix, *mm.Classical) {
	tats := []testAtom{
		{"C1", "C", "LIG", 1, -0.2, 3.4, 0.086, r3.Vec{}},
		{"C2", "C", "LIG", 1, 0.3, 3.4, 0.086, r3.Vec{X: 1.5}},
		{"C3", "C", "LIG", 2, -0.1, 3.4, 0.086, r3.Vec{X: 2.0, Y: 1.4}},
		{"O1", "O", "LIG", 2, -0.4, 3.0, 0.17, r3.Vec{X: 3.3, Y: 1.6, Z: 0.3}},
		{"OW", "O", "HOH", 3, 0, 0, 0, r3.Vec{X: 0.5, Y: -3.0, Z: 0.2}},
		{"HW1", "H", "HOH", 3, 0, 0, 0, r3.Vec{X: 0.5, Y: -2.05, Z: 0.3}},
		{"HW2", "H", "HOH", 3, 0, 0, 0, r3.Vec{X: 1.4, Y: -3.3, Z: 0.2}},
	}
	ats := make([]*janus.Atom, len(tats))
	pos := make([]r3.Vec, len(tats))
	for i, t := range tats {
		ats[i] = &janus.Atom{Name: t.name, Symbol: t.sym, MolName: t.res, MolID: t.molid, Charge: t.q, Sigma: t.sigma, Epsilon: t.eps}
		pos[i] = t.pos
	}
	top, err := janus.NewTopology(ats, 0, 1)
	require.NoError(Te, err)
	require.Equal(Te, []int{0, 1, 2, 3}, mm.Assign(top, mm.TIP3P()))
	janus.AddBond(top, 0, 1)
	janus.AddBond(top, 1, 2)
	janus.AddBond(top, 2, 3)
	C, err := mm.NewClassical(top, 0)
	require.NoError(Te, err)
	return top, v3.FromVecs(pos), C
}

// checkForces compares forces with the finite-difference derivative of the energy.
func checkForces(Te *testing.T, E *Evaluator, coords *v3.Matrix, qmAtoms []int, forces map[int]r3.Vec) {
	const h = 1e-5
	ctx := context.Background()
	for at := 0; at < coords.NVecs(); at++ {
		for c := 0; c < 3; c++ {
			plus, minus := coords.Copy(), coords.Copy()
			plus.Set(at, c, coords.At(at, c)+h)
			minus.Set(at, c, coords.At(at, c)-h)
			ep, _, err := E.Evaluate(ctx, plus, qmAtoms)
			require.NoError(Te, err)
			em, _, err := E.Evaluate(ctx, minus, qmAtoms)
			require.NoError(Te, err)
			f := forces[at]
			assert.InDelta(Te, -(ep-em)/(2*h), []float64{f.X, f.Y, f.Z}[c], 1e-4, "atom %d coordinate %d", at, c)
		}
	}
}

func TestParseEmbedding(Te *testing.T) {
	e, err := ParseEmbedding("Electrostatic")
	require.NoError(Te, err)
	assert.Equal(Te, Electrostatic, e)
	e, err = ParseEmbedding("")
	require.NoError(Te, err)
	assert.Equal(Te, Mechanical, e)
	_, err = ParseEmbedding("polarizable")
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
}

func TestEvaluatePureMM(Te *testing.T) {
	top, coords, C := testSystem(Te)
	fake := new(harmonicQM)
	E, err := New(top, fake, C)
	require.NoError(Te, err)
	energy, forces, err := E.Evaluate(context.Background(), coords, nil)
	require.NoError(Te, err)
	all, err := C.Compute(context.Background(), coords, nil)
	require.NoError(Te, err)
	assert.Equal(Te, all.Energy, energy)
	assert.Equal(Te, all.Forces, forces)
	assert.Nil(Te, fake.last)
}

func TestEvaluateMechanical(Te *testing.T) {
	top, coords, C := testSystem(Te)
	fake := new(harmonicQM)
	E, err := New(top, fake, C)
	require.NoError(Te, err)
	ctx := context.Background()
	qmAtoms := []int{0, 1}
	energy, forces, err := E.Evaluate(ctx, coords, qmAtoms)
	require.NoError(Te, err)

	in := fake.last
	require.NotNil(Te, in)
	assert.Equal(Te, []string{"C", "C", "H"}, in.Symbols)
	assert.Equal(Te, 0, in.Charge)
	assert.Equal(Te, 1, in.Multi)
	assert.Nil(Te, in.PointCharges)
	assert.InDelta(Te, janus.CHDist, r3.Norm(r3.Sub(in.Coords.Vec(2), coords.Vec(1))), 1e-12)

	all, err := C.Compute(ctx, coords, nil)
	require.NoError(Te, err)
	sub, err := C.Compute(ctx, coords, qmAtoms)
	require.NoError(Te, err)
	qmE, err := new(harmonicQM).Compute(ctx, in)
	require.NoError(Te, err)
	assert.InDelta(Te, all.Energy-sub.Energy+qmE.Energy, energy, 1e-9)
	assert.Len(Te, forces, top.Len())
	checkForces(Te, E, coords, qmAtoms, forces)
}

func TestEvaluateNoLinks(Te *testing.T) {
	top, coords, C := testSystem(Te)
	fake := new(harmonicQM)
	E, err := New(top, fake, C, WithLinkAtoms(false), WithCharge(-1))
	require.NoError(Te, err)
	_, forces, err := E.Evaluate(context.Background(), coords, []int{0, 1})
	require.NoError(Te, err)
	assert.Equal(Te, []string{"C", "C"}, fake.last.Symbols)
	assert.Equal(Te, -1, fake.last.Charge)
	checkForces(Te, E, coords, []int{0, 1}, forces)
}

func TestEvaluateElectrostatic(Te *testing.T) {
	top, coords, C := testSystem(Te)
	fake := new(harmonicQM)
	E, err := New(top, fake, C, WithEmbedding(Electrostatic))
	require.NoError(Te, err)
	qmAtoms := []int{0, 1}
	_, forces, err := E.Evaluate(context.Background(), coords, qmAtoms)
	require.NoError(Te, err)
	//atom 2 is the MM end of the link bond.
	require.Len(Te, fake.last.PointCharges, 4)
	assert.Equal(Te, coords.Vec(3), fake.last.PointCharges[0].Coords)
	assert.InDelta(Te, -0.834, fake.last.PointCharges[1].Charge, 1e-12)
	checkForces(Te, E, coords, qmAtoms, forces)

	//the whole ligand, no links
	qmAtoms = []int{0, 1, 2, 3}
	_, forces, err = E.Evaluate(context.Background(), coords, qmAtoms)
	require.NoError(Te, err)
	assert.Len(Te, fake.last.PointCharges, 3)
	assert.Len(Te, fake.last.Symbols, 4)
	checkForces(Te, E, coords, qmAtoms, forces)
}

func TestEvaluateErrors(Te *testing.T) {
	top, coords, C := testSystem(Te)
	ctx := context.Background()
	_, err := New(top, nil, C)
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))

	fake := new(harmonicQM)
	E, err := New(top, fake, C)
	require.NoError(Te, err)
	_, _, err = E.Evaluate(ctx, coords, []int{1, 0})
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
	_, _, err = E.Evaluate(ctx, coords, []int{1, 1})
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
	_, _, err = E.Evaluate(ctx, coords, []int{7})
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
	_, _, err = E.Evaluate(ctx, v3.Zeros(3), []int{0})
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))

	fake.fail = true
	_, _, err = E.Evaluate(ctx, coords, []int{0, 1})
	assert.True(Te, errors.Is(err, janus.ErrEngineFailure))

	fake.fail = false
	fake.rows = 1
	_, _, err = E.Evaluate(ctx, coords, []int{0, 1})
	assert.True(Te, errors.Is(err, janus.ErrEngineFailure))
}
