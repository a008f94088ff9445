/*
 * params.go, part of janus.
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

package mm

import (
	"fmt"
	"os"
	"strings"

	"github.com/zhenglz/janus"
	"gopkg.in/yaml.v3"
)

// Nonbonded holds the non-bonded parameters for one atom type.
type Nonbonded struct {
	Charge  float64 `yaml:"charge"`
	Sigma   float64 `yaml:"sigma"`   //A
	Epsilon float64 `yaml:"epsilon"` //kcal/mol
}

// Params maps residue names to atom names to parameters.
type Params map[string]map[string]Nonbonded

// waterNames are the residue names recognized as water.
var waterNames = []string{"HOH", "WAT", "SOL", "TIP3"}

// TIP3P returns the parameters of the TIP3P water model, under the usual
// residue and atom names.
func TIP3P() Params {
	o := Nonbonded{Charge: -0.834, Sigma: 3.15061, Epsilon: 0.1521}
	h := Nonbonded{Charge: 0.417}
	P := make(Params)
	for _, res := range waterNames {
		P[res] = map[string]Nonbonded{"O": o, "OW": o, "OH2": o, "H1": h, "H2": h, "HW1": h, "HW2": h}
	}
	return P
}

// Merge copies the parameters in Q into P, overwriting the repeated ones.
func (P Params) Merge(Q Params) {
	for res, ats := range Q {
		if _, ok := P[res]; !ok {
			P[res] = make(map[string]Nonbonded, len(ats))
		}
		for name, nb := range ats {
			P[res][name] = nb
		}
	}
}

// Lookup returns the parameters for the atom at, if any.
func (P Params) Lookup(at *janus.Atom) (Nonbonded, bool) {
	res, ok := P[strings.ToUpper(strings.TrimSpace(at.MolName))]
	if !ok {
		return Nonbonded{}, false
	}
	nb, ok := res[strings.ToUpper(strings.TrimSpace(at.Name))]
	return nb, ok
}

// LoadParams reads a YAML parameter file, with residue names as keys, atom names as
// sub-keys, and charge, sigma and epsilon for each atom.
func LoadParams(name string) (Params, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, janus.NewError(janus.ErrConfiguration, "LoadParams", err.Error())
	}
	raw := make(Params)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, janus.NewError(janus.ErrConfiguration, "LoadParams", fmt.Sprintf("%s: %v", name, err))
	}
	P := make(Params, len(raw))
	for res, ats := range raw {
		m := make(map[string]Nonbonded, len(ats))
		for n, nb := range ats {
			if nb.Sigma < 0 || nb.Epsilon < 0 {
				return nil, janus.NewError(janus.ErrConfiguration, "LoadParams", fmt.Sprintf("negative Lennard-Jones parameter for %s/%s", res, n))
			}
			m[strings.ToUpper(n)] = nb
		}
		P[strings.ToUpper(res)] = m
	}
	return P, nil
}

// Assign sets the charge and Lennard-Jones parameters of every atom in top found in P.
// It returns the indexes of the atoms not found, which keep whatever parameters they had.
func Assign(top janus.Atomer, P Params) []int {
	var missing []int
	for i := 0; i < top.Len(); i++ {
		at := top.Atom(i)
		nb, ok := P.Lookup(at)
		if !ok {
			missing = append(missing, i)
			continue
		}
		at.Charge = nb.Charge
		at.Sigma = nb.Sigma
		at.Epsilon = nb.Epsilon
	}
	return missing
}
