/*
 * buffer.go, part of janus.
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

// Package buffer locates the QM core and the buffer zone around a QM center. The
// classification works on whole groups (residues): a group is either in the QM core,
// in the buffer zone or excluded (MM only).
package buffer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zhenglz/janus"
	v3 "github.com/zhenglz/janus/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Policy selects the point of a group used to compute its distance to the QM center.
type Policy int

const (
	// COM uses the mass-weighted center of mass of the group.
	COM Policy = iota
	// Nearest uses the atom of the group closest to the QM center.
	Nearest
)

func (p Policy) String() string {
	switch p {
	case COM:
		return "com"
	case Nearest:
		return "nearest"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy returns the Policy named s ("com" or "nearest", case insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "com", "":
		return COM, nil
	case "nearest":
		return Nearest, nil
	}
	return COM, janus.NewError(janus.ErrConfiguration, "ParsePolicy", fmt.Sprintf("unknown distance policy %q", s))
}

// Options contains the parameters for Locate.
type Options struct {
	RMin   float64 //groups closer than this are QM
	RMax   float64 //groups farther than this are MM
	Policy Policy
	//Groups whose nearest atom is farther than RMax+Cutoff from the center are excluded
	//without further checks. It should be larger than the radius of the largest group.
	Cutoff float64
}

// DefaultOptions returns the default options for Locate.
func DefaultOptions() *Options {
	return &Options{RMin: 3.8, RMax: 4.5, Policy: COM, Cutoff: 3}
}

// Check returns an error if the options can't be used.
func (o *Options) Check() error {
	if o.RMin < 0 || o.RMax < 0 {
		return janus.NewError(janus.ErrConfiguration, "Options.Check", fmt.Sprintf("negative radius: Rmin %g Rmax %g", o.RMin, o.RMax))
	}
	if o.RMin >= o.RMax {
		return janus.NewError(janus.ErrConfiguration, "Options.Check", fmt.Sprintf("Rmin (%g) must be smaller than Rmax (%g)", o.RMin, o.RMax))
	}
	if o.Cutoff < 0 {
		return janus.NewError(janus.ErrConfiguration, "Options.Check", fmt.Sprintf("negative cutoff %g", o.Cutoff))
	}
	return nil
}

// Center is the reference point of the QM region.
type Center struct {
	Atoms    []int
	Position r3.Vec
	//WeightRatio is the fraction of the center's mass carried by each center atom.
	WeightRatio map[int]float64
}

// BufferGroup is a group in the buffer zone, i.e. with Rmin < R < Rmax.
// Locate fills everything up to WeightRatio, package switching fills Phi, S and DS,
// and the interpolation fills EnergyScaler.
type BufferGroup struct {
	ID      int //the ID of the group in the topology
	MolID   int
	MolName string
	Chain   string
	Atoms   []int
	R       float64 //distance from the QM center
	COM     r3.Vec  //the point of the group R is measured from
	//Direction is the unit vector going from COM to the QM center.
	Direction   r3.Vec
	WeightRatio map[int]float64
	Phi         float64
	S           float64
	DS          float64 //dS/dR
	//EnergyScaler is dE/dS, only meaningful during the force correction.
	EnergyScaler float64
}

// Zone is the result of Locate.
type Zone struct {
	Center   *Center
	QMAtoms  []int //the QM core atoms, sorted
	QMGroups []int
	Buffer   []*BufferGroup //sorted by ID
	Excluded []int          //IDs of the groups outside the buffer zone
}

// BufferIDs returns the IDs of the buffer groups, in ascending order.
func (z *Zone) BufferIDs() []int {
	ret := make([]int, len(z.Buffer))
	for i, b := range z.Buffer {
		ret[i] = b.ID
	}
	return ret
}

// OrderValues returns the distance to the center of each buffer group, in the order of BufferIDs.
func (z *Zone) OrderValues() []float64 {
	ret := make([]float64, len(z.Buffer))
	for i, b := range z.Buffer {
		ret[i] = b.R
	}
	return ret
}

// Group returns the buffer group with the given ID, or nil.
func (z *Zone) Group(id int) *BufferGroup {
	i := sort.Search(len(z.Buffer), func(i int) bool { return z.Buffer[i].ID >= id })
	if i < len(z.Buffer) && z.Buffer[i].ID == id {
		return z.Buffer[i]
	}
	return nil
}

// QMAtomsWith returns the sorted union of the QM core atoms and the atoms of the
// buffer groups with the given IDs. Unknown IDs cause an error.
func (z *Zone) QMAtomsWith(ids []int) ([]int, error) {
	ret := make([]int, len(z.QMAtoms), len(z.QMAtoms)+8*len(ids))
	copy(ret, z.QMAtoms)
	for _, id := range ids {
		g := z.Group(id)
		if g == nil {
			return nil, janus.NewError(janus.ErrConfiguration, "Zone.QMAtomsWith", fmt.Sprintf("%d is not a buffer group", id))
		}
		ret = append(ret, g.Atoms...)
	}
	sort.Ints(ret)
	return ret, nil
}

// NewCenter builds the QM center from the atoms centerAtoms. With one atom, the
// center is that atom. With more, it is their center of mass, with the masses
// given by mol.
func NewCenter(centerAtoms []int, coords *v3.Matrix, mol janus.Masser) (*Center, error) {
	if len(centerAtoms) == 0 {
		return nil, janus.NewError(janus.ErrConfiguration, "NewCenter", "empty QM center")
	}
	if len(centerAtoms) == 1 {
		a := centerAtoms[0]
		if a < 0 || a >= coords.NVecs() {
			return nil, janus.NewError(janus.ErrConfiguration, "NewCenter", fmt.Sprintf("QM center atom %d out of range", a))
		}
		return &Center{Atoms: []int{a}, Position: coords.Vec(a), WeightRatio: map[int]float64{a: 1}}, nil
	}
	masses, err := mol.Masses()
	if err != nil {
		return nil, janus.ErrDecorate(err, "NewCenter")
	}
	pos, ratio, err := janus.CenterOfMass(coords, centerAtoms, masses)
	if err != nil {
		return nil, janus.ErrDecorate(err, "NewCenter")
	}
	atoms := append([]int(nil), centerAtoms...)
	sort.Ints(atoms)
	return &Center{Atoms: atoms, Position: pos, WeightRatio: ratio}, nil
}

// Locate classifies the groups of top around the QM center defined by centerAtoms.
// A group with R <= RMin goes to the QM core, one with R >= RMax is excluded, and the
// rest are buffer groups. Groups containing a center atom are always in the QM core.
// The result depends only on the coordinates.
func Locate(centerAtoms []int, top *janus.Topology, coords *v3.Matrix, o *Options) (*Zone, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if err := o.Check(); err != nil {
		return nil, janus.ErrDecorate(err, "Locate")
	}
	if coords.NVecs() != top.Len() {
		return nil, janus.NewError(janus.ErrConfiguration, "Locate", fmt.Sprintf("%d coordinates for %d atoms", coords.NVecs(), top.Len()))
	}
	center, err := NewCenter(centerAtoms, coords, top)
	if err != nil {
		return nil, janus.ErrDecorate(err, "Locate")
	}
	masses, err := top.Masses()
	if err != nil {
		return nil, janus.ErrDecorate(err, "Locate")
	}
	incenter := make(map[int]bool, len(center.Atoms))
	for _, a := range center.Atoms {
		incenter[a] = true
	}
	zone := &Zone{Center: center}
	for _, g := range top.Groups() {
		if hasAny(g.Atoms, incenter) {
			zone.QMGroups = append(zone.QMGroups, g.ID)
			zone.QMAtoms = append(zone.QMAtoms, g.Atoms...)
			continue
		}
		near, dnear := janus.NearestAtom(coords, g.Atoms, center.Position)
		if dnear > o.RMax+o.Cutoff {
			zone.Excluded = append(zone.Excluded, g.ID)
			continue
		}
		var point r3.Vec
		var ratio map[int]float64
		switch o.Policy {
		case Nearest:
			point = coords.Vec(near)
			ratio = map[int]float64{near: 1}
		default:
			point, ratio, err = janus.CenterOfMass(coords, g.Atoms, masses)
			if err != nil {
				return nil, janus.ErrDecorate(err, "Locate")
			}
		}
		d := r3.Sub(center.Position, point)
		r := r3.Norm(d)
		switch {
		case r <= o.RMin:
			zone.QMGroups = append(zone.QMGroups, g.ID)
			zone.QMAtoms = append(zone.QMAtoms, g.Atoms...)
		case r >= o.RMax:
			zone.Excluded = append(zone.Excluded, g.ID)
		default:
			zone.Buffer = append(zone.Buffer, &BufferGroup{
				ID:          g.ID,
				MolID:       g.MolID,
				MolName:     g.MolName,
				Chain:       g.Chain,
				Atoms:       g.Atoms,
				R:           r,
				COM:         point,
				Direction:   r3.Scale(1/r, d), //r > RMin >= 0
				WeightRatio: ratio,
			})
		}
	}
	sort.Ints(zone.QMAtoms)
	return zone, nil
}

func hasAny(atoms []int, set map[int]bool) bool {
	for _, a := range atoms {
		if set[a] {
			return true
		}
	}
	return false
}

// Validate returns an error wrapping janus.ErrOverlappingDefinition if two of the
// groups share an atom.
func Validate(groups []*BufferGroup) error {
	owner := make(map[int]int)
	for _, g := range groups {
		for _, a := range g.Atoms {
			if prev, ok := owner[a]; ok && prev != g.ID {
				return janus.NewError(janus.ErrOverlappingDefinition, "Validate", fmt.Sprintf("atom %d is in buffer groups %d and %d", a, prev, g.ID))
			}
			owner[a] = g.ID
		}
	}
	return nil
}
