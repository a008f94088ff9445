/*
 * chem.go, part of janus.
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
)

/**Note: Some functions here panic instead of returning errors. If something goes
 * wrong here, the program is most likely wrong and should crash. Those panics are
 * related to using the function on a nil object or accessing out-of-bounds fields**/

// Atom contains the information on one atom, except for the coordinates,
// which are kept in a v3.Matrix.
type Atom struct {
	Name    string
	ID      int //serial number in the input file
	index   int //0-based position in the topology
	MolName string
	MolID   int
	Chain   string
	Symbol  string
	Mass    float64
	Charge  float64 //partial charge, in e
	Sigma   float64 //Lennard-Jones sigma, in A
	Epsilon float64 //Lennard-Jones epsilon, in kcal/mol
	Het     bool    // is hetatm in the pdb file?
	Bonds   []*Bond
}

// Index returns the position of the atom in its topology.
func (A *Atom) Index() int {
	return A.index
}

/*****Topology type***/

// Topology contains the information about a system which is not expected to change in time,
// i.e. everything except for the coordinates.
type Topology struct {
	Atoms  []*Atom
	charge int
	multi  int
}

// NewTopology returns a topology with the atoms ats, total charge charge and
// multiplicity multi. A multiplicity of 0 is taken as 1 (singlet). The index of
// each atom is set to its position in ats.
func NewTopology(ats []*Atom, charge, multi int) (*Topology, error) {
	if ats == nil {
		return nil, NewError(ErrConfiguration, "NewTopology", "Supplied a nil atom slice")
	}
	if multi == 0 {
		multi = 1
	}
	top := &Topology{Atoms: ats, charge: charge, multi: multi}
	top.ResetIndexes()
	return top, nil
}

// Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

// Multi gets the spin multiplicity of the topology
func (T *Topology) Multi() int {
	return T.multi
}

// SetCharge sets the total charge of the topology to i
func (T *Topology) SetCharge(i int) {
	T.charge = i
}

// SetMulti sets the multiplicity of the topology to i
func (T *Topology) SetMulti(i int) {
	T.multi = i
}

// ResetIndexes sets the index of each atom to its position in the topology.
func (T *Topology) ResetIndexes() {
	for i, at := range T.Atoms {
		at.index = i
	}
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() || i < 0 {
		panic(ErrOutOfRange)
	}
	return T.Atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Masses returns a slice with the mass of each atom. It returns an error
// if some atom has no mass assigned.
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i, at := range T.Atoms {
		if at.Mass <= 0 {
			return nil, NewError(ErrConfiguration, "Masses", fmt.Sprintf("Atom %d (%s %s) has no mass", i, at.Name, at.Symbol))
		}
		mass[i] = at.Mass
	}
	return mass, nil
}

// Symbols returns the element symbols of the atoms in atomlist, or of all the
// atoms if atomlist is empty.
func (T *Topology) Symbols(atomlist ...int) []string {
	if len(atomlist) == 0 {
		ret := make([]string, T.Len())
		for i, at := range T.Atoms {
			ret[i] = at.Symbol
		}
		return ret
	}
	ret := make([]string, len(atomlist))
	for i, v := range atomlist {
		ret[i] = T.Atom(v).Symbol
	}
	return ret
}

// Bonded returns true if atoms i and j share a bond.
func (T *Topology) Bonded(i, j int) bool {
	for _, b := range T.Atom(i).Bonds {
		if b.Cross(T.Atoms[i]).Index() == j {
			return true
		}
	}
	return false
}

// Neighbors returns the indexes of the atoms bonded to atom i, in ascending order.
func (T *Topology) Neighbors(i int) []int {
	at := T.Atom(i)
	ret := make([]int, 0, len(at.Bonds))
	for _, b := range at.Bonds {
		ret = append(ret, b.Cross(at).Index())
	}
	sort.Ints(ret)
	return ret
}

// HasBonds returns true if at least one atom in the topology has a bond.
func (T *Topology) HasBonds() bool {
	for _, at := range T.Atoms {
		if len(at.Bonds) > 0 {
			return true
		}
	}
	return false
}

/*****Group type***/

// Group is a residue, or any other set of atoms that is always
// assigned as a whole to either the QM or the MM region.
type Group struct {
	ID      int //0-based, in order of first appearance in the topology
	MolID   int
	MolName string
	Chain   string
	Atoms   []int
}

// Groups splits the topology in groups. Atoms sharing chain, residue number and residue
// name belong to the same group, regardless of whether they are contiguous.
func (T *Topology) Groups() []*Group {
	type key struct {
		chain string
		molid int
		name  string
	}
	ret := make([]*Group, 0, T.Len()/3+1)
	seen := make(map[key]*Group)
	for i, at := range T.Atoms {
		k := key{at.Chain, at.MolID, at.MolName}
		g, ok := seen[k]
		if !ok {
			g = &Group{ID: len(ret), MolID: at.MolID, MolName: at.MolName, Chain: at.Chain}
			seen[k] = g
			ret = append(ret, g)
		}
		g.Atoms = append(g.Atoms, i)
	}
	return ret
}

// GroupOf returns a slice where the element i is the ID of the group that contains atom i.
func GroupOf(groups []*Group, natoms int) []int {
	ret := make([]int, natoms)
	for i := range ret {
		ret[i] = -1
	}
	for _, g := range groups {
		for _, a := range g.Atoms {
			ret[a] = g.ID
		}
	}
	return ret
}
