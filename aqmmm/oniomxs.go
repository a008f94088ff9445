/*
 * oniomxs.go, part of janus.
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

	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/buffer"
)

// OniomXS is the ONIOM-XS scheme. There is only one partition besides the QM core, with
// all the buffer groups, and it weights the mean of the switching functions.
type OniomXS struct{}

func (OniomXS) Name() string { return "ONIOM-XS" }

// Count returns 2, or 1 without buffer groups.
func (OniomXS) Count(n int) (int, bool) {
	if n < 0 {
		return 0, false
	}
	if n == 0 {
		return 1, true
	}
	return 2, true
}

// Enumerate returns a single set with all the ids, or nothing if ids is empty.
func (OniomXS) Enumerate(ids []int, order []float64) ([][]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return [][]int{SortOrder(ids, order)}, nil
}

func (o OniomXS) Combine(core *Partition, parts []*Partition, zone *buffer.Zone, modified bool) (*Combined, error) {
	return combine(o, o, core, parts, zone, modified)
}

func (OniomXS) weights(zone *buffer.Zone, all []*Partition) ([]float64, map[int]float64, error) {
	n := len(zone.Buffer)
	in, err := groupSet(all[1], zone)
	if err != nil {
		return nil, nil, err
	}
	if len(in) != n {
		return nil, nil, janus.NewError(janus.ErrConfiguration, "OniomXS.weights", fmt.Sprintf("partition %d has %d groups, expected %d", all[1].ID, len(in), n))
	}
	var sigma float64
	for _, g := range zone.Buffer {
		sigma += g.S
	}
	sigma /= float64(n)
	scalers := make(map[int]float64, n)
	d := (all[1].Energy - all[0].Energy) / float64(n)
	for _, g := range zone.Buffer {
		scalers[g.ID] = d
	}
	return []float64{1 - sigma, sigma}, scalers, nil
}
