/*
 * combine.go, part of janus.
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

func copyForces(f map[int]r3.Vec) map[int]r3.Vec {
	ret := make(map[int]r3.Vec, len(f))
	for k, v := range f {
		ret[k] = v
	}
	return ret
}

// combine does the work for the Combine method of all schemes.
func combine(s Scheme, w weighter, core *Partition, parts []*Partition, zone *buffer.Zone, modified bool) (*Combined, error) {
	if core == nil || zone == nil {
		return nil, janus.NewError(janus.ErrConfiguration, s.Name()+".Combine", "nil QM core partition or zone")
	}
	//No buffer groups: the QM core result is returned untouched.
	if len(zone.Buffer) == 0 {
		if len(parts) != 0 {
			return nil, janus.NewError(janus.ErrConfiguration, s.Name()+".Combine", fmt.Sprintf("%d partitions given for an empty buffer zone", len(parts)))
		}
		core.Weight = 1
		core.WeightedEnergy = core.Energy
		core.WeightedForces = copyForces(core.Forces)
		return &Combined{Energy: core.Energy, Forces: copyForces(core.Forces)}, nil
	}
	if err := buffer.Validate(zone.Buffer); err != nil {
		return nil, janus.ErrDecorate(err, s.Name()+".Combine")
	}
	count, ok := s.Count(len(zone.Buffer))
	if !ok || len(parts) != count-1 {
		return nil, janus.NewError(janus.ErrConfiguration, s.Name()+".Combine", fmt.Sprintf("%d partitions given, %d expected", len(parts), count-1))
	}
	all := make([]*Partition, 0, len(parts)+1)
	all = append(all, core)
	all = append(all, parts...)

	weights, scalers, err := w.weights(zone, all)
	if err != nil {
		return nil, janus.ErrDecorate(err, s.Name()+".Combine")
	}
	ret := &Combined{Forces: make(map[int]r3.Vec)}
	for i, p := range all {
		p.Weight = weights[i]
		p.WeightedEnergy = p.Energy * p.Weight
		p.WeightedForces = make(map[int]r3.Vec, len(p.Forces))
		for a, f := range p.Forces {
			wf := r3.Scale(p.Weight, f)
			p.WeightedForces[a] = wf
			ret.Forces[a] = r3.Add(ret.Forces[a], wf)
		}
		ret.Energy += p.WeightedEnergy
	}
	for _, g := range zone.Buffer {
		g.EnergyScaler = scalers[g.ID]
	}
	if modified {
		return ret, nil
	}
	ret.Correction, err = Correction(zone)
	if err != nil {
		return nil, janus.ErrDecorate(err, s.Name()+".Combine")
	}
	for a, f := range ret.Correction {
		ret.Forces[a] = r3.Add(ret.Forces[a], f)
	}
	return ret, nil
}

// groupSet returns the groups of p as a set, checking that all of them are buffer groups.
func groupSet(p *Partition, zone *buffer.Zone) (map[int]bool, error) {
	set := make(map[int]bool, len(p.Groups))
	for _, id := range p.Groups {
		if zone.Group(id) == nil {
			return nil, janus.NewError(janus.ErrConfiguration, "groupSet", fmt.Sprintf("partition %d contains %d, which is not a buffer group", p.ID, id))
		}
		if set[id] {
			return nil, janus.NewError(janus.ErrConfiguration, "groupSet", fmt.Sprintf("partition %d contains group %d twice", p.ID, id))
		}
		set[id] = true
	}
	return set, nil
}
