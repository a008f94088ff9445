/*
 * plot_test.go, part of janus.
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

package chemplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhenglz/janus/buffer"
	"github.com/zhenglz/janus/history"
	"github.com/zhenglz/janus/switching"
)

func nonEmpty(Te *testing.T, name string) {
	st, err := os.Stat(name)
	require.NoError(Te, err)
	assert.Greater(Te, st.Size(), int64(0))
}

func TestSwitchingPlot(Te *testing.T) {
	dir := Te.TempDir()
	groups := []*buffer.BufferGroup{{ID: 1, R: 4.0}, {ID: 2, R: 4.3}}
	switching.Apply(switching.Quintic, groups, 3.8, 4.5)
	name := filepath.Join(dir, "switching")
	require.NoError(Te, SwitchingPlot([]switching.Kernel{switching.Quintic, switching.Cosine}, 3.8, 4.5, groups, "Switching", name))
	nonEmpty(Te, name+".png")

	name = filepath.Join(dir, "switching.svg")
	require.NoError(Te, SwitchingPlot([]switching.Kernel{switching.Cosine}, 3.8, 4.5, nil, "Cosine", name))
	nonEmpty(Te, name)

	assert.Error(Te, SwitchingPlot(nil, 3.8, 4.5, nil, "", name))
	assert.Error(Te, SwitchingPlot([]switching.Kernel{switching.Cosine}, 4.5, 3.8, nil, "", name))
}

func TestEnergyPlot(Te *testing.T) {
	var recs []*history.Record
	for i := 0; i < 5; i++ {
		recs = append(recs, &history.Record{Session: "first-session", RunID: i, Energy: -10 - float64(i*i)})
		recs = append(recs, &history.Record{Session: "second", RunID: i, Energy: -12 + float64(i)})
	}
	name := filepath.Join(Te.TempDir(), "energy.png")
	require.NoError(Te, EnergyPlot(recs, "Energy", name))
	nonEmpty(Te, name)
	assert.Error(Te, EnergyPlot(nil, "", name))
}

func TestColors(Te *testing.T) {
	c0 := colors(0, 3)
	c2 := colors(2, 3)
	assert.NotEqual(Te, c0, c2)
	assert.Equal(Te, uint8(255), c0.A)
	_, err := getShape(4)
	assert.Error(Te, err)
}
