/*
 * xtb.go, part of janus.
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
//In order to use this part of the library you need the xtb program, which must be obtained from Prof. Stefan Grimme's group.
//Please cite the the xtb references if you used the program.

package qm

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zhenglz/janus"
	v3 "github.com/zhenglz/janus/v3"
)

const xtbJob = "janus"

// XTBHandle runs single point gradient calculations with xtb. Each calculation
// runs in its own scratch directory, so several of them can run at the same time.
// Note that the default methods vary with each program, and are NOT considered part of the API.
type XTBHandle struct {
	command string
	nCPU    int
	workdir string //parent of the scratch directories, "" means os.TempDir()
	keep    bool   //keep the scratch directories
	logger  *slog.Logger
}

// NewXTBHandle returns an XTBHandle with the default settings.
func NewXTBHandle() *XTBHandle {
	run := new(XTBHandle)
	run.SetDefaults()
	return run
}

//XTBHandle methods

// SetnCPU sets the number of CPU to be used by each calculation
func (O *XTBHandle) SetnCPU(cpu int) {
	O.nCPU = cpu
}

func (O *XTBHandle) Command() string {
	return O.command
}

// SetCommand sets the command used to call xtb. It can include arguments.
func (O *XTBHandle) SetCommand(name string) {
	O.command = name
}

// SetWorkDir sets the directory where the scratch directories are created.
func (O *XTBHandle) SetWorkDir(dir string) {
	O.workdir = dir
}

// KeepFiles sets whether the scratch directories are kept after the calculation.
func (O *XTBHandle) KeepFiles(keep bool) {
	O.keep = keep
}

// SetLogger sets the logger used to report the calculations.
func (O *XTBHandle) SetLogger(l *slog.Logger) {
	O.logger = l
}

func (O *XTBHandle) SetDefaults() {
	O.command = os.ExpandEnv("xtb")
	cpu := runtime.NumCPU() / 2
	if cpu < 1 {
		cpu = 1
	}
	O.nCPU = cpu
	O.logger = slog.Default()
}

func (O *XTBHandle) Name() string { return XTB }

// commandLine returns the command to run the job in its directory.
func (O *XTBHandle) commandLine(in *Input) string {
	Q := in.Calc
	if Q == nil {
		Q = new(Calc)
		Q.SetDefaults()
	}
	options := make([]string, 0, 10)
	options = append(options, O.command, xtbJob+".xyz", "--input "+xtbJob+".inp", "--grad")
	options = append(options, fmt.Sprintf("-c %d", in.Charge))
	options = append(options, fmt.Sprintf("-u %d", in.Multi-1))
	if O.nCPU > 1 {
		options = append(options, fmt.Sprintf("-P %d", O.nCPU))
	}
	switch Q.Method {
	case "gfnff":
		options = append(options, "--gfnff")
	case "gfn0", "gfn1", "gfn2":
		options = append(options, "--gfn "+strings.TrimPrefix(Q.Method, "gfn"))
	default:
		options = append(options, "--gfn 2") //default method
	}
	if Q.Dielectric > 0 && Q.Method != "gfn0" { //gfn0 doesn't support implicit solvation
		solvent, ok := dielectric2Solvent[int(Q.Dielectric)]
		if ok {
			options = append(options, "--alpb "+solvent)
		}
	}
	if Q.Others != "" {
		options = append(options, Q.Others)
	}
	return strings.Join(options, " ") + fmt.Sprintf(" > %s.out 2>&1", xtbJob)
}

// buildInput writes the geometry, the xcontrol file and, if needed, the point charges to dir.
func (O *XTBHandle) buildInput(dir string, in *Input) error {
	err := janus.XYZFileWrite(filepath.Join(dir, xtbJob+".xyz"), in.Coords, in.Symbols)
	if err != nil {
		return &Error{ErrCantInput, XTB, in.Name, err.Error(), []string{"BuildInput"}, true}
	}
	xcontrol, err := os.Create(filepath.Join(dir, xtbJob+".inp"))
	if err != nil {
		return &Error{ErrCantInput, XTB, in.Name, err.Error(), []string{"os.Create", "BuildInput"}, true}
	}
	if len(in.PointCharges) > 0 {
		//xtb reads the point charges in Bohr, and writes their gradient to pcgrad.
		_, err = fmt.Fprintf(xcontrol, "$embedding\n input=pcharge\n gradient=pcgrad\n$end\n")
	}
	if cerr := xcontrol.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &Error{ErrCantInput, XTB, in.Name, err.Error(), []string{"xcontrol", "BuildInput"}, true}
	}
	if len(in.PointCharges) == 0 {
		return nil
	}
	pc, err := os.Create(filepath.Join(dir, "pcharge"))
	if err != nil {
		return &Error{ErrCantInput, XTB, in.Name, err.Error(), []string{"os.Create", "BuildInput"}, true}
	}
	w := bufio.NewWriter(pc)
	fmt.Fprintf(w, "%d\n", len(in.PointCharges))
	for _, c := range in.PointCharges {
		fmt.Fprintf(w, "%12.6f %16.8f %16.8f %16.8f\n", c.Charge, c.Coords.X*janus.A2Bohr, c.Coords.Y*janus.A2Bohr, c.Coords.Z*janus.A2Bohr)
	}
	if err := w.Flush(); err != nil {
		pc.Close()
		return &Error{ErrCantInput, XTB, in.Name, err.Error(), []string{"bufio.Flush", "BuildInput"}, true}
	}
	return pc.Close()
}

// Compute runs a gradient calculation on in. The process is killed if ctx is done.
func (O *XTBHandle) Compute(ctx context.Context, in *Input) (*Output, error) {
	if err := in.Check(); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(O.workdir, "janus-xtb-")
	if err != nil {
		return nil, &Error{ErrCantInput, XTB, in.Name, err.Error(), []string{"os.MkdirTemp", "Compute"}, true}
	}
	if !O.keep {
		defer os.RemoveAll(dir)
	}
	if err := O.buildInput(dir, in); err != nil {
		return nil, err
	}
	com := O.commandLine(in)
	O.logger.Debug("running xtb", "job", in.Name, "dir", dir, "command", com)
	command := exec.CommandContext(ctx, "sh", "-c", com)
	command.Dir = dir
	if err := command.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("xtb job %s: %w", in.Name, ctx.Err())
		}
		return nil, &Error{ErrNotRunning, XTB, in.Name, err.Error() + tail(filepath.Join(dir, xtbJob+".out")), []string{"exec.Run", "Compute"}, true}
	}
	if !normalTermination(filepath.Join(dir, xtbJob+".out")) {
		return nil, &Error{ErrNotRunning, XTB, in.Name, "abnormal termination", []string{"Compute"}, true}
	}
	energy, grad, err := readTurbomoleGradient(filepath.Join(dir, "gradient"), in.Coords.NVecs())
	if err != nil {
		return nil, &Error{ErrNoGradient, XTB, in.Name, err.Error(), []string{"readTurbomoleGradient", "Compute"}, true}
	}
	out := &Output{Energy: energy * janus.H2Kcal, Gradient: grad}
	grad.Dense.Scale(janus.H2Kcal*janus.A2Bohr, grad.Dense) //Hartree/Bohr to kcal/mol/A
	if len(in.PointCharges) > 0 {
		pcgrad, err := readVectors(filepath.Join(dir, "pcgrad"), len(in.PointCharges))
		if err != nil {
			return nil, &Error{ErrNoGradient, XTB, in.Name, "point charges: " + err.Error(), []string{"readVectors", "Compute"}, true}
		}
		pcgrad.Dense.Scale(janus.H2Kcal*janus.A2Bohr, pcgrad.Dense)
		out.PCGradient = pcgrad
	}
	//charges are optional
	if charges, err := readColumn(filepath.Join(dir, "charges"), in.Coords.NVecs()); err == nil {
		out.Charges = charges
	}
	O.logger.Debug("xtb finished", "job", in.Name, "energy", out.Energy)
	return out, nil
}

// normalTermination checks that an xtb calculation has terminated normally
func normalTermination(outname string) bool {
	data, err := os.ReadFile(outname)
	if err != nil {
		return false
	}
	return !strings.Contains(string(data), "abnormal termination")
}

// tail returns the last few lines of the file, to make errors more informative.
func tail(name string) string {
	data, err := os.ReadFile(name)
	if err != nil || len(data) == 0 {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return "\n" + strings.Join(lines, "\n")
}

func parseFortranFloat(s string) (float64, error) {
	s = strings.NewReplacer("D", "E", "d", "e").Replace(s)
	return strconv.ParseFloat(s, 64)
}

// readTurbomoleGradient reads the energy and gradient from a gradient file in
// Turbomole format, which xtb writes with --grad. Units are Hartree and Hartree/Bohr.
// Only the last cycle in the file is read.
func readTurbomoleGradient(name string, natoms int) (float64, *v3.Matrix, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()
	var energy float64
	var block []string
	found := false
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		switch {
		case strings.HasPrefix(line, "cycle"):
			fields := strings.Fields(line)
			found = false
			for i, v := range fields {
				if v == "energy" && i+2 < len(fields) {
					energy, err = parseFortranFloat(fields[i+2])
					if err != nil {
						return 0, nil, err
					}
					found = true
				}
			}
			block = block[:0]
		case strings.HasPrefix(line, "$"):
			continue
		case line != "":
			block = append(block, line)
		}
	}
	if err := s.Err(); err != nil {
		return 0, nil, err
	}
	if !found {
		return 0, nil, fmt.Errorf("no energy in %s", name)
	}
	if len(block) != 2*natoms {
		return 0, nil, fmt.Errorf("%d lines in the last cycle of %s, expected %d", len(block), name, 2*natoms)
	}
	grad, err := parseVectors(block[natoms:])
	return energy, grad, err
}

func parseVectors(lines []string) (*v3.Matrix, error) {
	data := make([]float64, 0, 3*len(lines))
	for _, l := range lines {
		fields := strings.Fields(l)
		if len(fields) < 3 {
			return nil, fmt.Errorf("ill formed line %q", l)
		}
		for _, v := range fields[:3] {
			f, err := parseFortranFloat(v)
			if err != nil {
				return nil, err
			}
			data = append(data, f)
		}
	}
	return v3.NewMatrix(data)
}

// readVectors reads n lines with 3 numbers each.
func readVectors(name string, n int) (*v3.Matrix, error) {
	lines, err := readLines(name)
	if err != nil {
		return nil, err
	}
	if len(lines) < n {
		return nil, fmt.Errorf("%d lines in %s, expected %d", len(lines), name, n)
	}
	return parseVectors(lines[:n])
}

// readColumn reads the first number of n lines.
func readColumn(name string, n int) ([]float64, error) {
	lines, err := readLines(name)
	if err != nil {
		return nil, err
	}
	if len(lines) < n {
		return nil, fmt.Errorf("%d lines in %s, expected %d", len(lines), name, n)
	}
	ret := make([]float64, n)
	for i, l := range lines[:n] {
		ret[i], err = parseFortranFloat(strings.Fields(l)[0])
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// readLines returns the non-empty lines of the file.
func readLines(name string) ([]string, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, 16)
	for _, l := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(l) != "" {
			ret = append(ret, l)
		}
	}
	return ret, nil
}

var dielectric2Solvent = map[int]string{
	80: "h2o",
	5:  "chcl3",
	9:  "ch2cl2",
	21: "acetone",
	37: "acetonitrile",
	33: "methanol",
	2:  "toluene",
	7:  "thf",
	47: "dmso",
	38: "dmf",
}
