/*
 * matrix_test.go, part of janus.
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

package v3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewMatrix(Te *testing.T) {
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(Te, err)
	assert.Equal(Te, 3, A.NVecs())
	assert.Equal(Te, r3.Vec{X: 4, Y: 5, Z: 6}, A.Vec(1))

	_, err = NewMatrix([]float64{1, 2})
	assert.Error(Te, err)
	_, err = NewMatrix(nil)
	assert.Error(Te, err)
}

func TestCopyAndDist(Te *testing.T) {
	A := FromVecs([]r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 3, Y: 4, Z: 0}})
	assert.InDelta(Te, 5.0, A.Dist(0, 1), 1e-12)
	B := A.Copy()
	B.SetVec(1, r3.Vec{})
	assert.InDelta(Te, 5.0, A.Dist(0, 1), 1e-12)
	assert.InDelta(Te, 0.0, B.Dist(0, 1), 1e-12)
}
