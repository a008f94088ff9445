/*
 * run.go, part of janus.
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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/engine"
	v3 "github.com/zhenglz/janus/v3"
)

var (
	spFrame     int
	forcesFile  string
	trajForces  bool
	trajMaxStep int
)

var singlePointCmd = &cobra.Command{
	Use:   "single-point",
	Short: "Compute the adaptive QM/MM energy and forces for one geometry",
	Long: `Reads the geometry file of the configuration and runs one step on the
selected model. The energy is printed, the forces can be written to a file.`,
	Args: cobra.NoArgs,
	RunE: runSinglePoint,
}

var trajectoryCmd = &cobra.Command{
	Use:   "trajectory [xyz file]",
	Short: "Run one step per frame of a trajectory",
	Long: `Replays the frames of a multi-frame XYZ file, or the models of the geometry
file if none is given, running one step per frame. The atoms must be in the same
order as in the geometry file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrajectory,
}

func init() {
	singlePointCmd.Flags().IntVar(&spFrame, "frame", 0, "0-based model of the geometry file to use")
	singlePointCmd.Flags().StringVarP(&forcesFile, "forces", "f", "", "write the forces to this file")
	trajectoryCmd.Flags().BoolVar(&trajForces, "print-forces", false, "print the forces of every step")
	trajectoryCmd.Flags().IntVar(&trajMaxStep, "max-steps", 0, "stop after this many steps, 0 means no limit")
	rootCmd.AddCommand(singlePointCmd, trajectoryCmd)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func printStep(w io.Writer, res *engine.StepResult) {
	fmt.Fprintf(w, "run %d: energy %.8f kcal/mol, %d QM atoms, %d buffer groups, %d partitions\n",
		res.RunID, res.Energy, len(res.Zone.QMAtoms), len(res.Zone.Buffer), len(res.Partitions))
	for _, p := range res.Partitions {
		fmt.Fprintf(w, "  partition %3d groups %v weight %.6f energy %.8f\n", p.ID, p.Groups, p.Weight, p.Energy)
	}
}

func runSinglePoint(cmd *cobra.Command, _ []string) error {
	s, err := newSystem(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	if spFrame < 0 || spFrame >= len(s.frames) {
		return janus.NewError(janus.ErrConfiguration, "single-point", fmt.Sprintf("frame %d requested, the file has %d", spFrame, len(s.frames)))
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()
	res, err := s.driver.Next(ctx, s.frames[spFrame])
	if err != nil {
		return err
	}
	printStep(cmd.OutOrStdout(), res)
	if forcesFile == "" {
		return nil
	}
	f, err := os.Create(forcesFile)
	if err != nil {
		return err
	}
	if err := writeForces(f, res.Forces); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// frameSource returns a function giving the next frame, or io.EOF when there are no more.
func frameSource(s *system, args []string) (func() (*v3.Matrix, error), func(), error) {
	if len(args) == 0 {
		i := 0
		return func() (*v3.Matrix, error) {
			if i >= len(s.frames) {
				return nil, io.EOF
			}
			i++
			return s.frames[i-1], nil
		}, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	traj := janus.NewXYZTraj(f)
	return func() (*v3.Matrix, error) {
		c, err := traj.Next()
		if err != nil {
			return nil, err
		}
		if c.NVecs() != s.top.Len() {
			return nil, janus.NewError(janus.ErrConfiguration, "trajectory", fmt.Sprintf("frame %d has %d atoms, the system has %d", traj.Frame(), c.NVecs(), s.top.Len()))
		}
		return c, nil
	}, func() { f.Close() }, nil
}

func runTrajectory(cmd *cobra.Command, args []string) error {
	s, err := newSystem(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	next, done, err := frameSource(s, args)
	if err != nil {
		return err
	}
	defer done()
	ctx, cancel := signalContext(cmd)
	defer cancel()
	out := cmd.OutOrStdout()
	for steps := 0; trajMaxStep == 0 || steps < trajMaxStep; steps++ {
		coords, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		res, err := s.driver.Next(ctx, coords)
		if err != nil {
			return err
		}
		printStep(out, res)
		if trajForces {
			if err := writeForces(out, res.Forces); err != nil {
				return err
			}
		}
	}
	return nil
}
