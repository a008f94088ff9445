/*
 * qmmm.go, part of janus.
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

// Package qmmm evaluates a QM/MM partition with the subtractive scheme
//
//	E = E_MM(all) - E_MM(Q) + E_QM(Q)
//
// where Q is the set of QM atoms of the partition. Covalent bonds cut by the
// QM/MM boundary are capped with hydrogen link atoms.
package qmmm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/mm"
	"github.com/zhenglz/janus/qm"
	v3 "github.com/zhenglz/janus/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Embedding is the way the QM region sees the MM region.
type Embedding int

const (
	// Mechanical: the QM region is computed in vacuum; all the QM-MM interactions are classical.
	Mechanical Embedding = iota
	// Electrostatic: the MM partial charges enter the QM Hamiltonian as point charges.
	Electrostatic
)

func (e Embedding) String() string {
	if e == Electrostatic {
		return "electrostatic"
	}
	return "mechanical"
}

// ParseEmbedding returns the embedding named s.
func ParseEmbedding(s string) (Embedding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mechanical":
		return Mechanical, nil
	case "electrostatic", "electronic":
		return Electrostatic, nil
	}
	return Mechanical, janus.NewError(janus.ErrConfiguration, "ParseEmbedding", fmt.Sprintf("unknown embedding %q", s))
}

// Excluder is implemented by MM engines that skip some atom pairs.
type Excluder interface {
	Excluded(i, j int) bool
}

type cutoffer interface {
	Cutoff() float64
}

// Evaluator computes QM/MM energies and forces for arbitrary QM regions.
// It is safe for concurrent use if its engines are.
type Evaluator struct {
	qm        qm.Engine
	mm        mm.Engine
	top       *janus.Topology
	calc      *qm.Calc
	embedding Embedding
	capping   bool
	charge    *int
	logger    *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithEmbedding sets the embedding, Mechanical by default.
func WithEmbedding(e Embedding) Option { return func(E *Evaluator) { E.embedding = e } }

// WithLinkAtoms sets whether the bonds cut by the boundary are capped with hydrogens. On by default.
func WithLinkAtoms(b bool) Option { return func(E *Evaluator) { E.capping = b } }

// WithCalc sets the QM calculation settings.
func WithCalc(c *qm.Calc) Option { return func(E *Evaluator) { E.calc = c } }

// WithCharge fixes the charge of every QM region. By default it is the rounded sum
// of the partial charges of the QM atoms.
func WithCharge(c int) Option { return func(E *Evaluator) { E.charge = &c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(E *Evaluator) { E.logger = l } }

// New returns an Evaluator for the system top.
func New(top *janus.Topology, qmEngine qm.Engine, mmEngine mm.Engine, opts ...Option) (*Evaluator, error) {
	if top == nil || top.Len() == 0 {
		return nil, janus.NewError(janus.ErrConfiguration, "qmmm.New", "empty topology")
	}
	if qmEngine == nil || mmEngine == nil {
		return nil, janus.NewError(janus.ErrConfiguration, "qmmm.New", "both a QM and an MM engine are needed")
	}
	E := &Evaluator{qm: qmEngine, mm: mmEngine, top: top, capping: true, logger: slog.Default()}
	for _, o := range opts {
		o(E)
	}
	if E.calc == nil {
		E.calc = new(qm.Calc)
		E.calc.SetDefaults()
	}
	return E, nil
}

// link is a hydrogen capping the QM atom q, on the bond to the MM atom m.
type link struct {
	q, m int
	pos  r3.Vec
}

// linkAtoms returns the link atoms for the QM region qmAtoms, in the order of qmAtoms
// and then of the MM neighbors.
func (E *Evaluator) linkAtoms(coords *v3.Matrix, qmAtoms []int) []link {
	if !E.capping {
		return nil
	}
	in := make(map[int]bool, len(qmAtoms))
	for _, a := range qmAtoms {
		in[a] = true
	}
	var ret []link
	for _, q := range qmAtoms {
		for _, m := range E.top.Neighbors(q) {
			if in[m] {
				continue
			}
			qv := coords.Vec(q)
			u := r3.Unit(r3.Sub(coords.Vec(m), qv))
			ret = append(ret, link{q: q, m: m, pos: r3.Add(qv, r3.Scale(janus.CHDist, u))})
		}
	}
	return ret
}

// spreadLink distributes the force f on the link atom l between its
// QM and MM parents, following the chain rule.
func spreadLink(coords *v3.Matrix, l link, f r3.Vec) (fq, fm r3.Vec) {
	d := r3.Sub(coords.Vec(l.m), coords.Vec(l.q))
	r := r3.Norm(d)
	u := r3.Scale(1/r, d)
	fm = r3.Scale(janus.CHDist/r, r3.Sub(f, r3.Scale(r3.Dot(u, f), u)))
	fq = r3.Sub(f, fm)
	return fq, fm
}

// regionCharge returns the total charge of the QM region.
func (E *Evaluator) regionCharge(qmAtoms []int) int {
	if E.charge != nil {
		return *E.charge
	}
	var q float64
	for _, a := range qmAtoms {
		q += E.top.Atom(a).Charge
	}
	return int(math.Round(q))
}

func checkAtoms(qmAtoms []int, natoms int) error {
	if !sort.IntsAreSorted(qmAtoms) {
		return janus.NewError(janus.ErrConfiguration, "qmmm.Evaluate", "QM atoms not sorted")
	}
	for i, a := range qmAtoms {
		if a < 0 || a >= natoms {
			return janus.NewError(janus.ErrConfiguration, "qmmm.Evaluate", fmt.Sprintf("QM atom %d out of range", a))
		}
		if i > 0 && qmAtoms[i-1] == a {
			return janus.NewError(janus.ErrConfiguration, "qmmm.Evaluate", fmt.Sprintf("QM atom %d repeated", a))
		}
	}
	return nil
}

// Evaluate returns the QM/MM energy and the forces on every atom, with the atoms
// in qmAtoms (sorted, 0-based) as the QM region. An empty region gives the pure MM result.
func (E *Evaluator) Evaluate(ctx context.Context, coords *v3.Matrix, qmAtoms []int) (float64, map[int]r3.Vec, error) {
	if coords.NVecs() != E.top.Len() {
		return 0, nil, janus.NewError(janus.ErrConfiguration, "qmmm.Evaluate", fmt.Sprintf("%d coordinates for %d atoms", coords.NVecs(), E.top.Len()))
	}
	if err := checkAtoms(qmAtoms, E.top.Len()); err != nil {
		return 0, nil, err
	}
	all, err := E.mm.Compute(ctx, coords, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("MM, whole system: %w", err)
	}
	forces := make(map[int]r3.Vec, E.top.Len())
	for i, f := range all.Forces {
		forces[i] = f
	}
	if len(qmAtoms) == 0 {
		return all.Energy, forces, nil
	}
	sub, err := E.mm.Compute(ctx, coords, qmAtoms)
	if err != nil {
		return 0, nil, fmt.Errorf("MM, QM region: %w", err)
	}
	energy := all.Energy - sub.Energy
	for i, f := range sub.Forces {
		forces[i] = r3.Sub(forces[i], f)
	}

	links := E.linkAtoms(coords, qmAtoms)
	n := len(qmAtoms) + len(links)
	in := &qm.Input{
		Name:    fmt.Sprintf("qm%d", len(qmAtoms)),
		Coords:  v3.Zeros(n),
		Symbols: E.top.Symbols(qmAtoms...),
		Charge:  E.regionCharge(qmAtoms),
		Multi:   E.top.Multi(),
		Calc:    E.calc,
	}
	for i, a := range qmAtoms {
		in.Coords.SetVec(i, coords.Vec(a))
	}
	for i, l := range links {
		in.Coords.SetVec(len(qmAtoms)+i, l.pos)
		in.Symbols = append(in.Symbols, "H")
	}
	var pcAtoms []int
	if E.embedding == Electrostatic {
		pcAtoms = E.pointChargeAtoms(qmAtoms, links)
		in.PointCharges = make([]qm.PointCharge, len(pcAtoms))
		for i, a := range pcAtoms {
			in.PointCharges[i] = qm.PointCharge{Charge: E.top.Atom(a).Charge, Coords: coords.Vec(a)}
		}
	}
	E.logger.Debug("QM calculation", "engine", E.qm.Name(), "atoms", len(qmAtoms), "links", len(links), "pointcharges", len(pcAtoms), "charge", in.Charge)
	out, err := E.qm.Compute(ctx, in)
	if err != nil {
		return 0, nil, fmt.Errorf("QM region of %d atoms: %w", len(qmAtoms), err)
	}
	if out.Gradient == nil || out.Gradient.NVecs() != n {
		return 0, nil, fmt.Errorf("QM region of %d atoms: gradient with wrong size: %w", len(qmAtoms), janus.ErrEngineFailure)
	}
	energy += out.Energy
	for i, a := range qmAtoms {
		forces[a] = r3.Sub(forces[a], out.Gradient.Vec(i))
	}
	for i, l := range links {
		fq, fm := spreadLink(coords, l, r3.Scale(-1, out.Gradient.Vec(len(qmAtoms)+i)))
		forces[l.q] = r3.Add(forces[l.q], fq)
		forces[l.m] = r3.Add(forces[l.m], fm)
	}
	if len(pcAtoms) > 0 {
		if out.PCGradient == nil || out.PCGradient.NVecs() != len(pcAtoms) {
			return 0, nil, fmt.Errorf("QM region of %d atoms: missing point charge gradient: %w", len(qmAtoms), janus.ErrEngineFailure)
		}
		for i, a := range pcAtoms {
			forces[a] = r3.Sub(forces[a], out.PCGradient.Vec(i))
		}
		energy -= E.removeCoulomb(coords, qmAtoms, pcAtoms, forces)
	}
	return energy, forces, nil
}

// pointChargeAtoms returns the charged atoms outside the QM region, except the
// MM ends of the link bonds.
func (E *Evaluator) pointChargeAtoms(qmAtoms []int, links []link) []int {
	skip := make(map[int]bool, len(qmAtoms)+len(links))
	for _, a := range qmAtoms {
		skip[a] = true
	}
	for _, l := range links {
		skip[l.m] = true
	}
	ret := make([]int, 0, E.top.Len()-len(qmAtoms))
	for i, at := range E.top.Atoms {
		if skip[i] || at.Charge == 0 {
			continue
		}
		ret = append(ret, i)
	}
	return ret
}

// removeCoulomb subtracts from forces the classical Coulomb forces between the QM atoms and
// the point charges, which the MM difference counts and the QM calculation already includes.
// It returns the corresponding energy.
func (E *Evaluator) removeCoulomb(coords *v3.Matrix, qmAtoms, pcAtoms []int, forces map[int]r3.Vec) float64 {
	ex, _ := E.mm.(Excluder)
	var cutoff float64
	if c, ok := E.mm.(cutoffer); ok {
		cutoff = c.Cutoff()
	}
	var energy float64
	for _, q := range qmAtoms {
		qq := E.top.Atom(q).Charge
		if qq == 0 {
			continue
		}
		for _, p := range pcAtoms {
			if ex != nil && ex.Excluded(q, p) {
				continue
			}
			d := r3.Sub(coords.Vec(q), coords.Vec(p))
			r := r3.Norm(d)
			if cutoff > 0 && r > cutoff {
				continue
			}
			e := janus.CoulombConst * qq * E.top.Atom(p).Charge / r
			energy += e
			f := r3.Scale(e/(r*r), d) //force on q
			forces[q] = r3.Sub(forces[q], f)
			forces[p] = r3.Add(forces[p], f)
		}
	}
	return energy
}
