/*
 * files.go, part of janus.
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

package janus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	v3 "github.com/zhenglz/janus/v3"
)

// This tries to guess a chemical element symbol from a PDB atom name. Mostly based on AMBER names.
// It only deals with some common bio-elements.
func symbolFromName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("Empty PDB atom name")
	}
	symbol := ""
	upper := strings.ToUpper(strings.TrimLeft(name, "0123456789"))
	if upper == "" {
		return "", fmt.Errorf("Couldn't guess symbol from PDB name %s", name)
	}
	switch {
	case len(name) == 4 || upper[0] == 'H': //only Hs have 4-char names in amber.
		symbol = "H"
	case upper == "CU", upper == "CO", upper == "CL", upper == "NA", upper == "ZN", upper == "MG", upper == "SE":
		symbol = NormalizeSymbol(upper)
	case upper[0] == 'C':
		symbol = "C"
	case upper[0] == 'N':
		symbol = "N"
	case upper[0] == 'O':
		symbol = "O"
	case upper[0] == 'P':
		symbol = "P"
	case upper[0] == 'S':
		symbol = "S"
	}
	if symbol == "" {
		return symbol, fmt.Errorf("Couldn't guess symbol from PDB name %s", name)
	}
	return symbol, nil
}

// Parses a valid ATOM or HETATM line of a PDB file, returns an Atom
// object with the info except for the coordinates, which are returned
// separately.
func readPDBAtomLine(line string, contlines int) (*Atom, []float64, error) {
	if len(line) < 54 {
		return nil, nil, fmt.Errorf("PDB line %d too short", contlines)
	}
	errs := make([]error, 5)
	coords := make([]float64, 3)
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.ID, errs[0] = strconv.Atoi(strings.TrimSpace(line[6:11]))
	atom.Name = strings.TrimSpace(line[12:16])
	atom.MolName = strings.TrimSpace(line[17:20])
	atom.Chain = strings.TrimSpace(line[21:22])
	atom.MolID, errs[1] = strconv.Atoi(strings.TrimSpace(line[22:26]))
	coords[0], errs[2] = strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
	coords[1], errs[3] = strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
	coords[2], errs[4] = strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
	for _, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("PDB line %d: %w", contlines, err)
		}
	}
	if len(line) >= 78 {
		atom.Symbol = NormalizeSymbol(line[76:78])
	}
	//If the element column is empty, we guess it from the name.
	if atom.Symbol == "" {
		var err error
		atom.Symbol, err = symbolFromName(atom.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("PDB line %d: %w", contlines, err)
		}
	}
	atom.Mass = SymbolMass(atom.Symbol)
	return atom, coords, nil
}

func readPDBCoordLine(line string, contlines int) ([]float64, error) {
	if len(line) < 54 {
		return nil, fmt.Errorf("PDB line %d too short", contlines)
	}
	coords := make([]float64, 3)
	var err error
	for i := 0; i < 3; i++ {
		coords[i], err = strconv.ParseFloat(strings.TrimSpace(line[30+8*i:38+8*i]), 64)
		if err != nil {
			return nil, fmt.Errorf("PDB line %d: %w", contlines, err)
		}
	}
	return coords, nil
}

// PDBRead reads the PDB file pdbname. See ReadPDB.
func PDBRead(pdbname string) (*Topology, []*v3.Matrix, error) {
	pdbfile, err := os.Open(pdbname)
	if err != nil {
		return nil, nil, err
	}
	defer pdbfile.Close()
	top, coords, err := ReadPDB(pdbfile)
	if err != nil {
		return nil, nil, ErrDecorate(err, "PDBRead "+pdbname)
	}
	return top, coords, nil
}

// ReadPDB reads the atomic entries of a PDB stream. It returns the topology, read from the
// first model, and one coordinate matrix per model. CONECT records become bonds. The charge
// of the topology is 0 and the multiplicity 1.
func ReadPDB(r io.Reader) (*Topology, []*v3.Matrix, error) {
	atoms := make([]*Atom, 0)
	serials := make(map[int]int) //serial number -> index
	coords := [][]float64{make([]float64, 0)}
	conect := make([][]int, 0)
	firstModel := true
	pdb := bufio.NewScanner(r)
	pdb.Buffer(make([]byte, 0, 1024), 1024*1024)
	contlines := 0
	for pdb.Scan() {
		line := pdb.Text()
		contlines++
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			if !firstModel {
				c, err := readPDBCoordLine(line, contlines)
				if err != nil {
					return nil, nil, NewError(ErrConfiguration, "ReadPDB", err.Error())
				}
				coords[len(coords)-1] = append(coords[len(coords)-1], c...)
				continue
			}
			at, c, err := readPDBAtomLine(line, contlines)
			if err != nil {
				return nil, nil, NewError(ErrConfiguration, "ReadPDB", err.Error())
			}
			serials[at.ID] = len(atoms)
			atoms = append(atoms, at)
			coords[len(coords)-1] = append(coords[len(coords)-1], c...)
		case strings.HasPrefix(line, "ENDMDL"):
			if len(coords[len(coords)-1]) > 0 {
				firstModel = false
				coords = append(coords, make([]float64, 0))
			}
		case strings.HasPrefix(line, "CONECT"):
			fields := strings.Fields(line[6:])
			rec := make([]int, 0, len(fields))
			for _, f := range fields {
				s, err := strconv.Atoi(f)
				if err != nil {
					return nil, nil, NewError(ErrConfiguration, "ReadPDB", fmt.Sprintf("PDB line %d: %s", contlines, err))
				}
				rec = append(rec, s)
			}
			conect = append(conect, rec)
		}
	}
	if err := pdb.Err(); err != nil {
		return nil, nil, err
	}
	if len(coords[len(coords)-1]) == 0 {
		coords = coords[:len(coords)-1]
	}
	if len(atoms) == 0 {
		return nil, nil, NewError(ErrConfiguration, "ReadPDB", "No atoms found")
	}
	top, err := NewTopology(atoms, 0, 1)
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range conect {
		if len(rec) < 2 {
			continue
		}
		i, ok := serials[rec[0]]
		if !ok {
			continue
		}
		for _, s := range rec[1:] {
			if j, ok := serials[s]; ok {
				AddBond(top, i, j)
			}
		}
	}
	mcoords := make([]*v3.Matrix, 0, len(coords))
	for i, c := range coords {
		if len(c) != 3*len(atoms) {
			return nil, nil, NewError(ErrConfiguration, "ReadPDB", fmt.Sprintf("Model %d has %d atoms, the first one has %d", i+1, len(c)/3, len(atoms)))
		}
		m, err := v3.NewMatrix(c)
		if err != nil {
			return nil, nil, err
		}
		mcoords = append(mcoords, m)
	}
	return top, mcoords, nil
}

// XYZTraj reads the frames of a multi-frame XYZ file one at a time.
type XYZTraj struct {
	r       *bufio.Reader
	natoms  int
	frame   int
	symbols []string
}

// NewXYZTraj prepares r to be read as an XYZ trajectory.
func NewXYZTraj(r io.Reader) *XYZTraj {
	return &XYZTraj{r: bufio.NewReader(r), natoms: -1}
}

// Frame returns the number of frames read so far.
func (X *XYZTraj) Frame() int {
	return X.frame
}

// Symbols returns the element symbols read from the last frame.
func (X *XYZTraj) Symbols() []string {
	return X.symbols
}

// Next reads the next frame and returns its coordinates. It returns io.EOF when
// there are no more frames. All frames must have the same number of atoms.
func (X *XYZTraj) Next() (*v3.Matrix, error) {
	var line string
	var err error
	for line == "" {
		line, err = X.r.ReadString('\n')
		line = strings.TrimSpace(line)
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, err
		}
	}
	natoms, err := strconv.Atoi(line)
	if err != nil || natoms <= 0 {
		return nil, NewError(ErrConfiguration, "XYZTraj.Next", fmt.Sprintf("Ill formatted XYZ frame %d", X.frame+1))
	}
	if X.natoms >= 0 && natoms != X.natoms {
		return nil, NewError(ErrConfiguration, "XYZTraj.Next", fmt.Sprintf("Frame %d has %d atoms, expected %d", X.frame+1, natoms, X.natoms))
	}
	X.natoms = natoms
	if _, err = X.r.ReadString('\n'); err != nil { //comment line
		return nil, NewError(ErrConfiguration, "XYZTraj.Next", fmt.Sprintf("Truncated XYZ frame %d", X.frame+1))
	}
	coords := make([]float64, 3*natoms)
	symbols := make([]string, natoms)
	for i := 0; i < natoms; i++ {
		line, err = X.r.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, NewError(ErrConfiguration, "XYZTraj.Next", fmt.Sprintf("Line %d of frame %d ill formed", i+3, X.frame+1))
		}
		symbols[i] = NormalizeSymbol(fields[0])
		for j := 0; j < 3; j++ {
			coords[3*i+j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, NewError(ErrConfiguration, "XYZTraj.Next", fmt.Sprintf("Line %d of frame %d: %s", i+3, X.frame+1, err))
			}
		}
	}
	X.frame++
	X.symbols = symbols
	return v3.NewMatrix(coords)
}

// XYZRead reads all the frames of the XYZ file xyzname, and returns a topology with one
// atom per line of the first frame, all in the same group, and the coordinates of each frame.
func XYZRead(xyzname string) (*Topology, []*v3.Matrix, error) {
	xyzfile, err := os.Open(xyzname)
	if err != nil {
		return nil, nil, err
	}
	defer xyzfile.Close()
	traj := NewXYZTraj(xyzfile)
	frames := make([]*v3.Matrix, 0, 1)
	var symbols []string
	for {
		c, err := traj.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, ErrDecorate(err, "XYZRead "+xyzname)
		}
		if symbols == nil {
			symbols = traj.Symbols()
		}
		frames = append(frames, c)
	}
	if len(frames) == 0 {
		return nil, nil, NewError(ErrConfiguration, "XYZRead", "Empty XYZ file "+xyzname)
	}
	atoms := make([]*Atom, len(symbols))
	for i, s := range symbols {
		atoms[i] = &Atom{Name: s, ID: i + 1, MolName: "MOL", MolID: 1, Symbol: s, Mass: SymbolMass(s)}
	}
	top, err := NewTopology(atoms, 0, 1)
	return top, frames, err
}

// WriteXYZ writes coords with the element symbols in symbols to out, in XYZ format.
func WriteXYZ(out io.Writer, coords *v3.Matrix, symbols []string, comment string) error {
	if coords.NVecs() != len(symbols) {
		return NewError(ErrConfiguration, "WriteXYZ", fmt.Sprintf("%d coordinates for %d symbols", coords.NVecs(), len(symbols)))
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%-4d\n%s\n", len(symbols), strings.ReplaceAll(comment, "\n", " "))
	for i, s := range symbols {
		c := coords.Vec(i)
		fmt.Fprintf(w, "%-2s  %12.6f%12.6f%12.6f\n", s, c.X, c.Y, c.Z)
	}
	return w.Flush()
}

// XYZFileWrite writes coords with the element symbols in symbols to the file xyzname,
// which is created or truncated.
func XYZFileWrite(xyzname string, coords *v3.Matrix, symbols []string) error {
	out, err := os.Create(xyzname)
	if err != nil {
		return err
	}
	if err := WriteXYZ(out, coords, symbols, "written by janus"); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
