/*
 * switching.go, part of janus.
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

// Package switching computes the switching functions that weight the buffer groups
// between the QM and MM regions.
//
// With x = (R - Rmin)/(Rmax - Rmin), a kernel gives the raw value phi(x) and its derivative.
// The weight is s = phi clamped to [0,1], so s = 1 at Rmin and s = 0 at Rmax, and
// ds/dR = (dphi/dx)/(Rmax - Rmin) inside the buffer zone and 0 outside of it.
package switching

import (
	"fmt"
	"math"
	"strings"

	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/buffer"
)

// Kernel is a smooth, decreasing function with phi(0) = 1, phi(1) = 0 and zero slope at both ends.
type Kernel interface {
	Name() string
	//Eval returns phi(x) and dphi/dx.
	Eval(x float64) (phi, dphi float64)
}

type quintic struct{}

func (quintic) Name() string { return "quintic" }

// 1 - 10x^3 + 15x^4 - 6x^5 (smootherstep). The polynomial is evaluated also
// outside [0,1], the clamp takes care of that.
func (quintic) Eval(x float64) (float64, float64) {
	x2 := x * x
	x3 := x2 * x
	phi := 1 - x3*(10-15*x+6*x2)
	dphi := -30 * x2 * (1 - x) * (1 - x)
	return phi, dphi
}

type cosine struct{}

func (cosine) Name() string { return "cosine" }

// (1 + cos(pi x))/2 in [0,1], constant outside.
func (cosine) Eval(x float64) (float64, float64) {
	if x <= 0 {
		return 1, 0
	}
	if x >= 1 {
		return 0, 0
	}
	return 0.5 * (1 + math.Cos(math.Pi*x)), -0.5 * math.Pi * math.Sin(math.Pi*x)
}

var (
	// Quintic is the default kernel.
	Quintic Kernel = quintic{}
	Cosine  Kernel = cosine{}
)

// NewKernel returns the kernel called name. An empty name gives Quintic.
func NewKernel(name string) (Kernel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "quintic", "smoothstep":
		return Quintic, nil
	case "cosine", "cos":
		return Cosine, nil
	}
	return nil, janus.NewError(janus.ErrConfiguration, "NewKernel", fmt.Sprintf("unknown switching function %q", name))
}

// Compute returns the raw switching value phi, the weight s and its derivative
// ds = ds/dr for a group at distance r. rmin must be smaller than rmax.
func Compute(k Kernel, r, rmin, rmax float64) (phi, s, ds float64) {
	width := rmax - rmin
	x := (r - rmin) / width
	phi, dphi := k.Eval(x)
	s = math.Max(0, math.Min(1, phi))
	if x > 0 && x < 1 {
		ds = dphi / width
	}
	return phi, s, ds
}

// Apply fills Phi, S and DS for each of the groups.
func Apply(k Kernel, groups []*buffer.BufferGroup, rmin, rmax float64) {
	for _, g := range groups {
		g.Phi, g.S, g.DS = Compute(k, g.R, rmin, rmax)
	}
}
