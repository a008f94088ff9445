/*
 * correction.go, part of janus.
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
	"gonum.org/v1/gonum/spatial/r3"
)

// Correction returns the forces due to the gradient of the switching functions, from the
// EnergyScaler (dE/ds), DS and Direction of each buffer group. For a group with
// c = EnergyScaler*DS, each atom of the group gets c*Direction times its weight ratio, and
// each QM center atom gets -c*Direction times its own ratio, so the correction of each group
// adds up to zero. An atom getting a correction from two groups, or from a group and the
// center, means the groups overlap, and an error wrapping janus.ErrOverlappingDefinition
// is returned.
func Correction(zone *buffer.Zone) (map[int]r3.Vec, error) {
	center := zone.Center
	if center == nil {
		return nil, janus.NewError(janus.ErrConfiguration, "Correction", "zone without QM center")
	}
	owner := make(map[int]int)
	for q := range center.WeightRatio {
		owner[q] = -1
	}
	ret := make(map[int]r3.Vec)
	for q := range center.WeightRatio {
		ret[q] = r3.Vec{}
	}
	for _, g := range zone.Buffer {
		c := g.EnergyScaler * g.DS
		for a, ratio := range g.WeightRatio {
			if prev, ok := owner[a]; ok {
				what := "the QM center"
				if prev >= 0 {
					what = fmt.Sprintf("buffer group %d", prev)
				}
				return nil, janus.NewError(janus.ErrOverlappingDefinition, "Correction", fmt.Sprintf("atom %d of buffer group %d also belongs to %s", a, g.ID, what))
			}
			owner[a] = g.ID
			ret[a] = r3.Scale(c*ratio, g.Direction)
		}
		for q, ratio := range center.WeightRatio {
			ret[q] = r3.Sub(ret[q], r3.Scale(c*ratio, g.Direction))
		}
	}
	return ret, nil
}
