/*
 * doc.go, part of janus.
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

/*
Package janus is the root package of the janus adaptive QM/MM engine. It provides the atom,
topology and residue (group) structures, facilities for reading and writing the PDB and XYZ
files the engine consumes, bond guessing, centers of mass and the unit conversions
shared by the rest of the module.


	**janus Capabilities**


    Reads PDB (single or multi-model, with CONECT records) and XYZ (single or multi-frame) files.

    Writes XYZ files, which is what the external QM programs take as input.

    Splits a topology into groups (residues), the units the adaptive partitioning
	works with. A group is never split between the QM and MM regions.

    Guesses covalent bonds from distances, so link atoms can be placed where a
	partition boundary cuts a bond.

    Locates the buffer zone around a QM center (package buffer), computes
	switching functions (package switching), enumerates the QM/MM partitions
	and interpolates their energies and forces (package aqmmm), evaluates each
	partition with a subtractive QM/MM scheme (package qmmm) and drives all of
	that concurrently, one step at a time (package engine).

janus uses Angstrom for distances, kcal/mol for energies and kcal/mol/A for forces. Coordinates
are stored in v3.Matrix (one atom per row); single positions, forces and directions are
gonum spatial/r3 vectors.*/
package janus
