/*
 * atomicdata.go, part of janus.
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

import "strings"

type element struct {
	mass     float64
	covrad   float64 //Cordero et al., 2008 (DOI:10.1039/B801115J)
	maxBonds int     //0 means the number of bonds is not checked
}

// Only common "bio-elements" are present.
var elements = map[string]element{
	"H":  {1.008, 0.4, 1},  //covalent radius is 0.31, but extra H bonds get removed later anyway.
	"C":  {12.01, 0.76, 4}, //sp3 radius
	"O":  {16.00, 0.66, 2},
	"N":  {14.01, 0.71, 0},
	"P":  {30.97, 1.07, 0},
	"S":  {32.06, 1.05, 0},
	"Se": {78.96, 1.2, 0},
	"K":  {39.10, 2.03, 0},
	"Ca": {40.08, 1.76, 0},
	"Mg": {24.30, 1.41, 0},
	"Cl": {35.45, 1.02, 1},
	"Na": {22.99, 1.66, 0},
	"Cu": {63.55, 1.32, 0},
	"Zn": {65.38, 1.22, 0},
	"Co": {58.93, 1.5, 0},  //hs
	"Fe": {55.84, 1.52, 0}, //hs
	"Mn": {54.94, 1.61, 0}, //hs
	"Cr": {51.996, 1.39, 0},
	"Si": {28.08, 1.11, 0},
	"Be": {9.012, 0.96, 0},
	"F":  {18.998, 0.57, 1},
	"Br": {79.904, 1.2, 1},
	"I":  {126.90, 1.39, 1},
}

// NormalizeSymbol returns the symbol with the first letter in upper case and
// the rest in lower case, i.e. "CL" becomes "Cl".
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ""
	}
	return strings.ToUpper(symbol[:1]) + strings.ToLower(symbol[1:])
}

// SymbolMass returns the atomic mass for the element symbol, or 0 if
// the element is not known.
func SymbolMass(symbol string) float64 {
	return elements[symbol].mass
}

// CovalentRadius returns the covalent radius for the element symbol, or 0 if
// the element is not known.
func CovalentRadius(symbol string) float64 {
	return elements[symbol].covrad
}

// MaxBonds returns the maximum number of bonds allowed for the element, 0 meaning
// no limit.
func MaxBonds(symbol string) int {
	return elements[symbol].maxBonds
}
