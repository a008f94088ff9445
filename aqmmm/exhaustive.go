/*
 * exhaustive.go, part of janus.
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
	"math/bits"

	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/buffer"
)

// Exhaustive is the permuted adaptive partitioning (PAP) scheme. A partition with the
// set B of buffer groups weights prod_{i in B} s_i * prod_{i not in B} (1-s_i).
type Exhaustive struct{}

func (Exhaustive) Name() string { return "PAP" }

// maxExhaustive is the first number of groups for which 2^n does not fit in an int
// on every platform the module builds for.
const maxExhaustive = 62

// Count returns 2^n.
func (Exhaustive) Count(n int) (int, bool) {
	if n < 0 || n >= maxExhaustive || n >= bits.UintSize-1 {
		return 0, false
	}
	return 1 << uint(n), true
}

// Enumerate returns all the non-empty subsets of ids, smaller subsets first, and subsets
// of the same size in lexicographic order of the positions in ids. order is not used.
func (e Exhaustive) Enumerate(ids []int, order []float64) ([][]int, error) {
	count, ok := e.Count(len(ids))
	if !ok {
		return nil, janus.NewError(janus.ErrConfiguration, "Exhaustive.Enumerate", fmt.Sprintf("%d buffer groups give too many subsets", len(ids)))
	}
	ret := make([][]int, 0, count-1)
	for k := 1; k <= len(ids); k++ {
		ret = combinations(ids, k, ret)
	}
	return ret, nil
}

// combinations appends to dst all the k-element combinations of items.
func combinations(items []int, k int, dst [][]int) [][]int {
	n := len(items)
	pos := make([]int, k)
	for i := range pos {
		pos[i] = i
	}
	for {
		c := make([]int, k)
		for i, p := range pos {
			c[i] = items[p]
		}
		dst = append(dst, c)
		//advance the rightmost position that can still move
		i := k - 1
		for i >= 0 && pos[i] == n-k+i {
			i--
		}
		if i < 0 {
			return dst
		}
		pos[i]++
		for j := i + 1; j < k; j++ {
			pos[j] = pos[j-1] + 1
		}
	}
}

func (e Exhaustive) Combine(core *Partition, parts []*Partition, zone *buffer.Zone, modified bool) (*Combined, error) {
	return combine(e, e, core, parts, zone, modified)
}

// The derivative of each weight with respect to s_i is the product of the other
// factors, with a minus sign if i is not in the partition. It is computed directly,
// rather than dividing the weight by s_i or (1-s_i), so it stays finite at s_i = 0 or 1.
func (Exhaustive) weights(zone *buffer.Zone, all []*Partition) ([]float64, map[int]float64, error) {
	weights := make([]float64, len(all))
	scalers := make(map[int]float64, len(zone.Buffer))
	factors := make([]float64, len(zone.Buffer))
	seen := make(map[string]bool, len(all))
	for p, part := range all {
		in, err := groupSet(part, zone)
		if err != nil {
			return nil, nil, err
		}
		key := subsetKey(zone, in)
		if seen[key] {
			return nil, nil, janus.NewError(janus.ErrConfiguration, "Exhaustive.weights", fmt.Sprintf("partition %d repeats a set of groups", part.ID))
		}
		seen[key] = true
		w := 1.0
		for i, g := range zone.Buffer {
			if in[g.ID] {
				factors[i] = g.S
			} else {
				factors[i] = 1 - g.S
			}
			w *= factors[i]
		}
		weights[p] = w
		for i, g := range zone.Buffer {
			d := 1.0
			for j := range factors {
				if j != i {
					d *= factors[j]
				}
			}
			if !in[g.ID] {
				d = -d
			}
			scalers[g.ID] += part.Energy * d
		}
	}
	return weights, scalers, nil
}

func subsetKey(zone *buffer.Zone, in map[int]bool) string {
	key := make([]byte, len(zone.Buffer))
	for i, g := range zone.Buffer {
		key[i] = '0'
		if in[g.ID] {
			key[i] = '1'
		}
	}
	return string(key)
}
