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

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/buffer"
	"github.com/zhenglz/janus/chemplot"
	"github.com/zhenglz/janus/switching"
)

var (
	switchingOut string
	energyOut    string
	plotKernels  []string
	plotGroups   bool
	plotSession  string
)

var plotSwitchingCmd = &cobra.Command{
	Use:   "plot-switching",
	Short: "Plot the switching functions for the configured radii",
	Long: `Draws s(r) for the chosen kernels between Rmin and Rmax. With --groups, the
buffer groups of the first model of the geometry file are marked on the curve.`,
	Args: cobra.NoArgs,
	RunE: runPlotSwitching,
}

var plotEnergyCmd = &cobra.Command{
	Use:   "plot-energy",
	Short: "Plot the energy along the runs kept in the history store",
	Args:  cobra.NoArgs,
	RunE:  runPlotEnergy,
}

func init() {
	plotSwitchingCmd.Flags().StringVarP(&switchingOut, "output", "o", "switching.png", "output file, the extension gives the format")
	plotSwitchingCmd.Flags().StringSliceVarP(&plotKernels, "kernel", "k", nil, "kernels to plot, the configured one by default")
	plotSwitchingCmd.Flags().BoolVar(&plotGroups, "groups", false, "mark the buffer groups of the geometry file")
	plotEnergyCmd.Flags().StringVarP(&energyOut, "output", "o", "energy.png", "output file, the extension gives the format")
	plotEnergyCmd.Flags().StringVar(&plotSession, "session", "", "plot only this session")
	rootCmd.AddCommand(plotSwitchingCmd, plotEnergyCmd)
}

func runPlotSwitching(cmd *cobra.Command, _ []string) error {
	names := plotKernels
	if len(names) == 0 {
		names = []string{cfg.Partition.Kernel}
	}
	kernels := make([]switching.Kernel, 0, len(names))
	for _, n := range names {
		k, err := switching.NewKernel(n)
		if err != nil {
			return err
		}
		kernels = append(kernels, k)
	}
	loc := cfg.Locator()
	if err := loc.Check(); err != nil {
		return err
	}
	var groups []*buffer.BufferGroup
	if plotGroups {
		if len(cfg.System.Center) == 0 || cfg.System.Geometry == "" {
			return janus.NewError(janus.ErrConfiguration, "plot-switching", "--groups needs a geometry and a QM center")
		}
		top, frames, err := janus.PDBRead(cfg.System.Geometry)
		if err != nil {
			return err
		}
		zone, err := buffer.Locate(cfg.System.Center, top, frames[0], loc)
		if err != nil {
			return err
		}
		switching.Apply(kernels[0], zone.Buffer, loc.RMin, loc.RMax)
		groups = zone.Buffer
	}
	title := fmt.Sprintf("Switching, Rmin %.2f Rmax %.2f", loc.RMin, loc.RMax)
	if err := chemplot.SwitchingPlot(kernels, loc.RMin, loc.RMax, groups, title, switchingOut); err != nil {
		return err
	}
	cmd.Printf("wrote %s\n", switchingOut)
	return nil
}

func runPlotEnergy(cmd *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	recs, err := store.List(cmd.Context(), plotSession)
	if err != nil {
		return err
	}
	if err := chemplot.EnergyPlot(recs, "Energy", energyOut); err != nil {
		return err
	}
	cmd.Printf("wrote %s\n", energyOut)
	return nil
}
