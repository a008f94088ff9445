/*
 * plot.go, part of janus.
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

// Package chemplot draws diagnostic plots for adaptive QM/MM runs: the switching
// function profile with the buffer groups of a step, and the energy along a run.
package chemplot

import (
	"fmt"
	"path/filepath"

	"github.com/zhenglz/janus/buffer"
	"github.com/zhenglz/janus/history"
	"github.com/zhenglz/janus/switching"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// points is the number of points used to draw each switching curve.
const points = 200

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = vg.Millimeter * 3
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// filename adds the png extension to plotname if it has none.
func filename(plotname string) string {
	if filepath.Ext(plotname) == "" {
		return plotname + ".png"
	}
	return plotname
}

// SwitchingPlot draws the switching function s(r) of each kernel between rmin-0.5 and rmax+0.5,
// and marks the buffer groups in groups (which can be nil) at their (R, S). The format is
// given by the extension of plotname, png if there is none.
func SwitchingPlot(kernels []switching.Kernel, rmin, rmax float64, groups []*buffer.BufferGroup, title, plotname string) error {
	if len(kernels) == 0 {
		return fmt.Errorf("chemplot: no kernels to plot")
	}
	if rmin >= rmax {
		return fmt.Errorf("chemplot: rmin (%g) must be smaller than rmax (%g)", rmin, rmax)
	}
	p := basicPlot(title, "r (A)", "s")
	lo, hi := rmin-0.5, rmax+0.5
	if lo < 0 {
		lo = 0
	}
	p.X.Min, p.X.Max = lo, hi
	p.Y.Min, p.Y.Max = -0.05, 1.05
	for key, k := range kernels {
		pts := make(plotter.XYs, points)
		for i := range pts {
			r := lo + (hi-lo)*float64(i)/float64(points-1)
			_, s, _ := switching.Compute(k, r, rmin, rmax)
			pts[i].X, pts[i].Y = r, s
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.LineStyle.Color = colors(key, len(kernels))
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(k.Name(), l)
	}
	if len(groups) > 0 {
		pts := make(plotter.XYs, len(groups))
		for i, g := range groups {
			pts[i].X, pts[i].Y = g.R, g.S
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.GlyphStyle.Shape, _ = getShape(0)
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add("buffer groups", s)
	}
	return p.Save(5*vg.Inch, 4*vg.Inch, filename(plotname))
}

// EnergyPlot draws the energy against the run id for the records in recs,
// one series per session.
func EnergyPlot(recs []*history.Record, title, plotname string) error {
	if len(recs) == 0 {
		return fmt.Errorf("chemplot: no records to plot")
	}
	var sessions []string
	series := make(map[string]plotter.XYs)
	for _, r := range recs {
		if _, ok := series[r.Session]; !ok {
			sessions = append(sessions, r.Session)
		}
		series[r.Session] = append(series[r.Session], plotter.XY{X: float64(r.RunID), Y: r.Energy})
	}
	p := basicPlot(title, "run", "E (kcal/mol)")
	for key, session := range sessions {
		l, s, err := plotter.NewLinePoints(series[session])
		if err != nil {
			return err
		}
		c := colors(key, len(sessions))
		l.LineStyle.Color = c
		s.GlyphStyle.Color = c
		if shape, err := getShape(key); err == nil {
			s.GlyphStyle.Shape = shape
		}
		p.Add(l, s)
		name := session
		if len(name) > 8 {
			name = name[:8]
		}
		p.Legend.Add(name, l, s)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, filename(plotname))
}
