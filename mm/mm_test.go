/*
 * mm_test.go, part of janus.
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

package mm

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhenglz/janus"
	v3 "github.com/zhenglz/janus/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

func twoWaters(Te *testing.T) (*janus.Topology, *v3.Matrix) {
	names := []string{"OW", "HW1", "HW2", "OW", "HW1", "HW2"}
	syms := []string{"O", "H", "H", "O", "H", "H"}
	ats := make([]*janus.Atom, len(names))
	for i := range names {
		ats[i] = &janus.Atom{Name: names[i], Symbol: syms[i], MolName: "HOH", MolID: 1 + i/3, Chain: "W"}
	}
	top, err := janus.NewTopology(ats, 0, 1)
	require.NoError(Te, err)
	coords := v3.FromVecs([]r3.Vec{
		{},
		{X: 0.957},
		{X: -0.24, Y: 0.927},
		{X: 2.9, Z: 0.1},
		{X: 3.5, Y: 0.7, Z: 0.1},
		{X: 3.3, Y: -0.8, Z: 0.2},
	})
	return top, coords
}

func TestAssign(Te *testing.T) {
	top, _ := twoWaters(Te)
	top.Atoms = append(top.Atoms, &janus.Atom{Name: "NA", Symbol: "Na", MolName: "NA", MolID: 3, Charge: 1})
	top.ResetIndexes()
	missing := Assign(top, TIP3P())
	assert.Equal(Te, []int{6}, missing)
	assert.InDelta(Te, -0.834, top.Atom(0).Charge, 1e-12)
	assert.InDelta(Te, 0.417, top.Atom(4).Charge, 1e-12)
	assert.InDelta(Te, 3.15061, top.Atom(3).Sigma, 1e-12)
	assert.Equal(Te, 1.0, top.Atom(6).Charge)
}

func TestLoadParams(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "params.yaml")
	data := `
na:
  na: {charge: 1.0, sigma: 2.43928, epsilon: 0.0874}
HOH:
  OW: {charge: -0.82, sigma: 3.166, epsilon: 0.1554}
`
	require.NoError(Te, os.WriteFile(name, []byte(data), 0644))
	P, err := LoadParams(name)
	require.NoError(Te, err)
	nb, ok := P.Lookup(&janus.Atom{Name: "Na", MolName: "Na"})
	require.True(Te, ok)
	assert.Equal(Te, 1.0, nb.Charge)

	W := TIP3P()
	W.Merge(P)
	nb, ok = W.Lookup(&janus.Atom{Name: "OW", MolName: "HOH"})
	require.True(Te, ok)
	assert.Equal(Te, -0.82, nb.Charge)
	nb, _ = W.Lookup(&janus.Atom{Name: "HW1", MolName: "HOH"})
	assert.Equal(Te, 0.417, nb.Charge)

	require.NoError(Te, os.WriteFile(name, []byte("HOH:\n  OW: {sigma: -1}\n"), 0644))
	_, err = LoadParams(name)
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
	_, err = LoadParams(filepath.Join(Te.TempDir(), "nothere.yaml"))
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
}

func TestClassicalEnergy(Te *testing.T) {
	top, coords := twoWaters(Te)
	Assign(top, TIP3P())
	C, err := NewClassical(top, 0)
	require.NoError(Te, err)
	out, err := C.Compute(context.Background(), coords, nil)
	require.NoError(Te, err)

	var want float64
	for i := 0; i < 3; i++ {
		for j := 3; j < 6; j++ {
			r := coords.Dist(i, j)
			want += janus.CoulombConst * top.Atom(i).Charge * top.Atom(j).Charge / r
		}
	}
	r := coords.Dist(0, 3)
	sr6 := math.Pow(3.15061/r, 6)
	lj := 4 * 0.1521 * (sr6*sr6 - sr6)
	assert.InDelta(Te, lj, out.Terms["lennard-jones"], 1e-9)
	assert.InDelta(Te, want+lj, out.Energy, 1e-9)
	assert.Len(Te, out.Forces, 6)

	//a single molecule has no intermolecular interactions
	out, err = C.Compute(context.Background(), coords, []int{3, 4, 5})
	require.NoError(Te, err)
	assert.Equal(Te, 0.0, out.Energy)
	assert.Len(Te, out.Forces, 3)
	assert.Equal(Te, r3.Vec{}, out.Forces[4])
}

func TestClassicalForces(Te *testing.T) {
	top, coords := twoWaters(Te)
	Assign(top, TIP3P())
	C, err := NewClassical(top, 0)
	require.NoError(Te, err)
	ctx := context.Background()
	out, err := C.Compute(ctx, coords, nil)
	require.NoError(Te, err)
	var net r3.Vec
	for _, f := range out.Forces {
		net = r3.Add(net, f)
	}
	assert.InDelta(Te, 0.0, r3.Norm(net), 1e-9)

	const h = 1e-5
	for _, at := range []int{0, 2, 4} {
		for c := 0; c < 3; c++ {
			plus, minus := coords.Copy(), coords.Copy()
			plus.Set(at, c, coords.At(at, c)+h)
			minus.Set(at, c, coords.At(at, c)-h)
			ep, err := C.Compute(ctx, plus, nil)
			require.NoError(Te, err)
			em, err := C.Compute(ctx, minus, nil)
			require.NoError(Te, err)
			num := -(ep.Energy - em.Energy) / (2 * h)
			f := out.Forces[at]
			got := []float64{f.X, f.Y, f.Z}[c]
			assert.InDelta(Te, num, got, 1e-4, "atom %d coordinate %d", at, c)
		}
	}
}

func TestClassicalExclusions(Te *testing.T) {
	top, _ := twoWaters(Te)
	Assign(top, TIP3P())
	C, err := NewClassical(top, 0)
	require.NoError(Te, err)
	assert.True(Te, C.Excluded(0, 2))
	assert.False(Te, C.Excluded(1, 4))

	janus.AddBond(top, 1, 3)
	C, err = NewClassical(top, 0)
	require.NoError(Te, err)
	assert.True(Te, C.Excluded(3, 1))
	assert.True(Te, C.Excluded(0, 3)) //1-3
	assert.False(Te, C.Excluded(2, 5))
}

func TestClassicalCutoff(Te *testing.T) {
	top, coords := twoWaters(Te)
	Assign(top, TIP3P())
	C, err := NewClassical(top, 1.0)
	require.NoError(Te, err)
	out, err := C.Compute(context.Background(), coords, nil)
	require.NoError(Te, err)
	assert.Equal(Te, 0.0, out.Energy)

	_, err = NewClassical(top, -1)
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
}

func TestClassicalErrors(Te *testing.T) {
	top, coords := twoWaters(Te)
	C, err := NewClassical(top, 0)
	require.NoError(Te, err)
	_, err = C.Compute(context.Background(), v3.Zeros(2), nil)
	assert.True(Te, errors.Is(err, janus.ErrEngineFailure))
	_, err = C.Compute(context.Background(), coords, []int{0, 9})
	assert.True(Te, errors.Is(err, janus.ErrEngineFailure))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = C.Compute(ctx, coords, nil)
	assert.ErrorIs(Te, err, context.Canceled)
}
