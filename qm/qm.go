/*
 * qm.go, part of janus.
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

package qm

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhenglz/janus"
	v3 "github.com/zhenglz/janus/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Engine is a QM program able to give energies and gradients.
type Engine interface {
	Name() string
	//Compute runs a calculation and blocks until it finishes, or ctx is done.
	Compute(ctx context.Context, in *Input) (*Output, error)
}

// PointCharge is an external charge, in e, for electrostatic embedding.
type PointCharge struct {
	Charge float64
	Coords r3.Vec
}

// Calc contains the settings for a calculation. Not every program
// uses every field.
type Calc struct {
	Method     string  //e.g. gfn2, gfn1, gfnff for xtb
	Dielectric float64 //for implicit solvation, 0 means gas phase.
	Memory     int     //Max memory to be used in MB (the effect depends on the QM program)
	Others     string  //extra command line options, passed as they are.
}

// SetDefaults sets the default method.
func (Q *Calc) SetDefaults() {
	Q.Method = "gfn2"
}

// Input is what a QM engine needs for one calculation.
type Input struct {
	Name         string //a label for logs and scratch directories
	Coords       *v3.Matrix
	Symbols      []string
	Charge       int
	Multi        int
	Calc         *Calc
	PointCharges []PointCharge //nil for mechanical embedding
}

// Check returns an error if the input is not consistent.
func (in *Input) Check() error {
	if in == nil || in.Coords == nil {
		return &Error{ErrMissingData, "", "", "no coordinates", []string{"Input.Check"}, true}
	}
	if in.Coords.NVecs() != len(in.Symbols) {
		return &Error{ErrMissingData, "", in.Name, fmt.Sprintf("%d coordinates for %d symbols", in.Coords.NVecs(), len(in.Symbols)), []string{"Input.Check"}, true}
	}
	if in.Multi < 1 {
		return &Error{ErrMissingData, "", in.Name, fmt.Sprintf("invalid multiplicity %d", in.Multi), []string{"Input.Check"}, true}
	}
	return nil
}

// Output is the result of a QM calculation.
type Output struct {
	Energy     float64    //kcal/mol
	Gradient   *v3.Matrix //kcal/mol/A, one row per atom of the input
	PCGradient *v3.Matrix //kcal/mol/A, one row per point charge. nil without point charges
	Charges    []float64  //partial charges, nil if not available
}

// Error is the error type of the qm package. It wraps janus.ErrEngineFailure.
type Error struct {
	message    string
	code       string //the name of the QM program giving the problem, or empty string if none
	inputname  string //the input file that has problems, or empty string if none.
	additional string
	deco       []string
	critical   bool
}

func (err *Error) Error() string {
	var b strings.Builder
	b.WriteString("qm")
	if err.code != "" {
		fmt.Fprintf(&b, " (%s)", err.code)
	}
	if err.inputname != "" {
		fmt.Fprintf(&b, " job %s", err.inputname)
	}
	fmt.Fprintf(&b, ": %s", err.message)
	if err.additional != "" {
		fmt.Fprintf(&b, ": %s", err.additional)
	}
	return b.String()
}

// Code returns the name of the program that gave the error.
func (err *Error) Code() string { return err.code }

// InputName returns the name of the job that failed.
func (err *Error) InputName() string { return err.inputname }

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

// Critical returns whether the error is critical or it can be ignored
func (err *Error) Critical() bool { return err.critical }

// Unwrap makes every qm error an engine failure.
func (err *Error) Unwrap() error { return janus.ErrEngineFailure }

// Errors
const (
	ErrMissingData = "Missing data in the input"
	ErrCantInput   = "Can't build input file"
	ErrNotRunning  = "Program not running or terminated abnormally"
	ErrNoEnergy    = "Can't obtain energy"
	ErrNoGradient  = "Can't obtain gradient"
	ErrNoCharges   = "Can't obtain charges"
)

// The names of the supported programs.
const (
	XTB = "XTB"
)
