/*
 * scheme.go, part of janus.
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

/*
Package aqmmm enumerates the partitions of an adaptive QM/MM step and interpolates their
energies and forces.

A partition is one choice of which buffer groups join the QM core. The QM core partition
(no buffer groups) always exists and has ID 0. Each scheme decides which other partitions
are needed and how their results are weighted:

	exhaustive (PAP)    every non-empty subset of the n buffer groups, 2^n-1 partitions.
	nested (SAP, DAS)   the groups sorted by distance, and the first k of them for k=1..n.
	oniom-xs            one partition with all the buffer groups.

The weights always add up to 1. Unless the modified variant is requested, the forces
include the term coming from the dependence of the weights on the geometry.
*/
package aqmmm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/buffer"
	"gonum.org/v1/gonum/spatial/r3"
)

// Partition is one assignment of buffer groups to the QM region.
type Partition struct {
	ID      int   //0 is the QM core
	Groups  []int //IDs of the buffer groups added to the QM core
	QMAtoms []int //sorted

	//Set by the evaluation. Forces in kcal/mol/A.
	Energy float64
	Forces map[int]r3.Vec

	//Set by Combine.
	Weight         float64
	WeightedEnergy float64
	WeightedForces map[int]r3.Vec
}

// Combined is the interpolated result of a step.
type Combined struct {
	Energy float64
	Forces map[int]r3.Vec
	//Correction holds the forces coming from the gradient of the switching functions.
	//They are already included in Forces. nil if no correction was applied.
	Correction map[int]r3.Vec
}

// Scheme is an adaptive QM/MM partitioning and interpolation scheme.
type Scheme interface {
	Name() string
	//Count returns the number of partitions of a step with n buffer groups,
	//the QM core one included, and false if that number does not fit in an int.
	Count(n int) (int, bool)
	//Enumerate returns the sets of buffer group IDs of all the partitions
	//but the QM core one, in the order they will be numbered (from 1).
	Enumerate(ids []int, order []float64) ([][]int, error)
	//Combine interpolates the evaluated partitions. parts must be the partitions
	//built from Enumerate, in the same order.
	Combine(core *Partition, parts []*Partition, zone *buffer.Zone, modified bool) (*Combined, error)
}

// weighter gives the weight of each partition (core first) and the derivative of
// the interpolated energy with respect to the switching function of each group.
type weighter interface {
	weights(zone *buffer.Zone, all []*Partition) ([]float64, map[int]float64, error)
}

// New returns the scheme called name. Names are case insensitive.
func New(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pap", "exhaustive":
		return Exhaustive{}, nil
	case "sap", "das", "nested":
		return Nested{}, nil
	case "oniom-xs", "oniomxs":
		return OniomXS{}, nil
	case "hot-spot", "hotspot":
		return nil, janus.NewError(janus.ErrConfiguration, "aqmmm.New", fmt.Sprintf("scheme %q is not supported", name))
	}
	return nil, janus.NewError(janus.ErrConfiguration, "aqmmm.New", fmt.Sprintf("unknown scheme %q", name))
}

// SortOrder returns ids sorted by ascending order value. Ties go to the lower id.
func SortOrder(ids []int, order []float64) []int {
	if len(ids) != len(order) {
		panic(janus.PanicMsg(fmt.Sprintf("aqmmm: %d ids and %d order values", len(ids), len(order))))
	}
	idx := make([]int, len(ids))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if order[a] != order[b] {
			return order[a] < order[b]
		}
		return ids[a] < ids[b]
	})
	ret := make([]int, len(ids))
	for i, v := range idx {
		ret[i] = ids[v]
	}
	return ret
}

// CheckCount returns an error if a step of scheme s with n buffer groups needs more
// than max partitions. max 0 means no limit, but the count must still fit in an int.
func CheckCount(s Scheme, n, max int) error {
	count, ok := s.Count(n)
	if !ok {
		return janus.NewError(janus.ErrConfiguration, "CheckCount", fmt.Sprintf("%d buffer groups are too many for the %s scheme", n, s.Name()))
	}
	if max > 0 && count > max {
		return janus.NewError(janus.ErrConfiguration, "CheckCount", fmt.Sprintf("%d partitions needed, the limit is %d", count, max))
	}
	return nil
}

// Partitions builds the partitions of the zone for scheme s. The first element is
// the QM core partition.
func Partitions(s Scheme, zone *buffer.Zone) ([]*Partition, error) {
	ret := []*Partition{{ID: 0, QMAtoms: append([]int(nil), zone.QMAtoms...)}}
	if len(zone.Buffer) == 0 {
		return ret, nil
	}
	subs, err := s.Enumerate(zone.BufferIDs(), zone.OrderValues())
	if err != nil {
		return nil, janus.ErrDecorate(err, "Partitions")
	}
	for i, sub := range subs {
		atoms, err := zone.QMAtomsWith(sub)
		if err != nil {
			return nil, janus.ErrDecorate(err, "Partitions")
		}
		ret = append(ret, &Partition{ID: i + 1, Groups: sub, QMAtoms: atoms})
	}
	return ret, nil
}
