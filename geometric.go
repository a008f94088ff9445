/*
 * geometric.go, part of janus.
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

package janus

import (
	"fmt"
	"math"

	v3 "github.com/zhenglz/janus/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// CenterOfMass returns the center of mass of the atoms with indexes atoms in coords, and
// the fraction of the total mass carried by each of those atoms (the weight ratios), which sum to 1.
// masses holds the mass of every atom in coords. If masses is nil, all atoms weight the same.
func CenterOfMass(coords *v3.Matrix, atoms []int, masses []float64) (r3.Vec, map[int]float64, error) {
	if len(atoms) == 0 {
		return r3.Vec{}, nil, NewError(ErrConfiguration, "CenterOfMass", "No atoms given")
	}
	var total float64
	var com r3.Vec
	ratios := make(map[int]float64, len(atoms))
	for _, a := range atoms {
		if a < 0 || a >= coords.NVecs() {
			return r3.Vec{}, nil, NewError(ErrConfiguration, "CenterOfMass", fmt.Sprintf("Atom index %d out of range", a))
		}
		m := 1.0
		if masses != nil {
			m = masses[a]
		}
		if _, ok := ratios[a]; ok {
			return r3.Vec{}, nil, NewError(ErrConfiguration, "CenterOfMass", fmt.Sprintf("Atom %d given twice", a))
		}
		ratios[a] = m
		total += m
		com = r3.Add(com, r3.Scale(m, coords.Vec(a)))
	}
	if total <= 0 {
		return r3.Vec{}, nil, NewError(ErrConfiguration, "CenterOfMass", "Total mass is zero")
	}
	for a := range ratios {
		ratios[a] /= total
	}
	return r3.Scale(1/total, com), ratios, nil
}

// NearestAtom returns the index of the atom in atoms closest to point p, and the distance between them.
func NearestAtom(coords *v3.Matrix, atoms []int, p r3.Vec) (int, float64) {
	best := -1
	bestd := math.Inf(1)
	for _, a := range atoms {
		d := r3.Norm(r3.Sub(coords.Vec(a), p))
		if d < bestd {
			best = a
			bestd = d
		}
	}
	return best, bestd
}
