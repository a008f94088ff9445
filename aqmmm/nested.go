/*
 * nested.go, part of janus.
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

package aqmmm

import (
	"fmt"
	"math"

	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/buffer"
)

// Nested is the sorted adaptive partitioning scheme (SAP, also called DAS here). The buffer groups
// are sorted by their distance to the QM center and partition k holds the first k of them. With
// s_(k) the switching function of the k-th group in that order, s_(0) = 1 and s_(n+1) = 0,
// partition k weights s_(k) - s_(k+1). Thus E = E_0 + sum_k s_(k) (E_k - E_(k-1)).
type Nested struct{}

func (Nested) Name() string { return "SAP" }

// Count returns n+1.
func (Nested) Count(n int) (int, bool) {
	if n < 0 || n == math.MaxInt {
		return 0, false
	}
	return n + 1, true
}

// Enumerate returns the n nested prefixes of ids sorted with SortOrder.
func (Nested) Enumerate(ids []int, order []float64) ([][]int, error) {
	sorted := SortOrder(ids, order)
	ret := make([][]int, len(sorted))
	for k := range sorted {
		ret[k] = append([]int(nil), sorted[:k+1]...)
	}
	return ret, nil
}

func (n Nested) Combine(core *Partition, parts []*Partition, zone *buffer.Zone, modified bool) (*Combined, error) {
	return combine(n, n, core, parts, zone, modified)
}

func (n Nested) weights(zone *buffer.Zone, all []*Partition) ([]float64, map[int]float64, error) {
	sorted := SortOrder(zone.BufferIDs(), zone.OrderValues())
	//all[k] must hold exactly the first k sorted groups.
	for k, part := range all {
		in, err := groupSet(part, zone)
		if err != nil {
			return nil, nil, err
		}
		if len(in) != k {
			return nil, nil, janus.NewError(janus.ErrConfiguration, "Nested.weights", fmt.Sprintf("partition %d has %d groups, expected %d", part.ID, len(in), k))
		}
		for _, id := range sorted[:k] {
			if !in[id] {
				return nil, nil, janus.NewError(janus.ErrConfiguration, "Nested.weights", fmt.Sprintf("partition %d is not the nested set of the %d closest groups", part.ID, k))
			}
		}
	}
	s := make([]float64, len(sorted)+2)
	s[0] = 1
	for k, id := range sorted {
		s[k+1] = zone.Group(id).S
	}
	weights := make([]float64, len(all))
	for k := range all {
		weights[k] = s[k] - s[k+1]
	}
	scalers := make(map[int]float64, len(sorted))
	for k, id := range sorted {
		scalers[id] = all[k+1].Energy - all[k].Energy
	}
	return weights, scalers, nil
}
