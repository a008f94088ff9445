/*
 * bonds.go, part of janus.
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
	"sort"

	v3 "github.com/zhenglz/janus/v3"
)

// constants from DOI:10.1186/1758-2946-3-33
const (
	tooclose = 0.63
	bondtol  = 0.45
)

// Bond is a covalent bond between two atoms.
type Bond struct {
	Index int
	At1   *Atom
	At2   *Atom
	Dist  float64
	Order float64 //Order 0 means undetermined
}

// Cross returns the atom bonded to origin through the bond B.
func (B *Bond) Cross(origin *Atom) *Atom {
	if origin.index == B.At1.index {
		return B.At2
	}
	if origin.index == B.At2.index {
		return B.At1
	}
	panic("Trying to cross a bond: The origin atom given is not present in the bond!")
}

// return a new *Bond slice with the bond index id removed
func takefromslice(bonds []*Bond, id int) []*Bond {
	newb := make([]*Bond, 0, len(bonds))
	for _, v := range bonds {
		if v.Index != id {
			newb = append(newb, v)
		}
	}
	return newb
}

// RemoveBond removes b from both of its atoms.
func RemoveBond(b *Bond) {
	b.At1.Bonds = takefromslice(b.At1.Bonds, b.Index)
	b.At2.Bonds = takefromslice(b.At2.Bonds, b.Index)
}

// AddBond bonds atoms i and j of top, unless they are already bonded.
func AddBond(top *Topology, i, j int) {
	if i == j || top.Bonded(i, j) {
		return
	}
	at1, at2 := top.Atom(i), top.Atom(j)
	b := &Bond{Index: nextBondIndex(top), At1: at1, At2: at2}
	at1.Bonds = append(at1.Bonds, b)
	at2.Bonds = append(at2.Bonds, b)
}

func nextBondIndex(top *Topology) int {
	next := 0
	for _, at := range top.Atoms {
		for _, b := range at.Bonds {
			if b.Index >= next {
				next = b.Index + 1
			}
		}
	}
	return next
}

// AssignBonds assigns bonds to the topology based on a simple distance
// criterion, similar to that described in DOI:10.1186/1758-2946-3-33
// Atoms exceeding their maximum number of bonds lose their longest bonds.
// It is quadratic in the number of atoms.
func AssignBonds(coords *v3.Matrix, top *Topology) error {
	if coords.NVecs() != top.Len() {
		return NewError(ErrConfiguration, "AssignBonds", fmt.Sprintf("%d coordinates for %d atoms", coords.NVecs(), top.Len()))
	}
	tot := top.Len()
	nextIndex := nextBondIndex(top)
	for i := 0; i < tot; i++ {
		at1 := top.Atom(i)
		cov1 := CovalentRadius(at1.Symbol)
		if cov1 == 0 {
			return NewError(ErrConfiguration, "AssignBonds", fmt.Sprintf("Couldn't find the covalent radii for %s %d", at1.Symbol, i))
		}
		for j := i + 1; j < tot; j++ {
			at2 := top.Atom(j)
			cov2 := CovalentRadius(at2.Symbol)
			if cov2 == 0 {
				return NewError(ErrConfiguration, "AssignBonds", fmt.Sprintf("Couldn't find the covalent radii for %s %d", at2.Symbol, j))
			}
			d := coords.Dist(i, j)
			if d < cov1+cov2+bondtol && d > tooclose && !top.Bonded(i, j) {
				b := &Bond{Index: nextIndex, Dist: d, At1: at1, At2: at2}
				at1.Bonds = append(at1.Bonds, b)
				at2.Bonds = append(at2.Bonds, b)
				nextIndex++
			}
		}
	}
	//Now we check that no atom has too many bonds.
	for i := 0; i < tot; i++ {
		at := top.Atom(i)
		max := MaxBonds(at.Symbol)
		if max == 0 {
			continue
		}
		for len(at.Bonds) > max {
			sort.Slice(at.Bonds, func(i, j int) bool { return at.Bonds[i].Dist < at.Bonds[j].Dist })
			RemoveBond(at.Bonds[len(at.Bonds)-1]) //we remove the longest bond
		}
	}
	return nil
}
