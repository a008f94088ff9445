/*
 * config_test.go, part of janus.
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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/buffer"
)

func TestLoadYAML(Te *testing.T) {
	cfg, err := Load("testdata/janus.yaml")
	require.NoError(Te, err)
	require.NoError(Te, cfg.Validate())
	assert.Equal(Te, []int{0, 1}, cfg.System.Center)
	assert.Equal(Te, "SAP", cfg.Partition.Scheme)
	assert.Equal(Te, "cosine", cfg.Partition.Kernel)
	assert.Equal(Te, 4, cfg.Engine.Workers)
	require.NotNil(Te, cfg.QMMM.Charge)
	assert.Equal(Te, -1, *cfg.QMMM.Charge)
	assert.Equal(Te, "gfn1", cfg.QM.Method)
	//defaults survive
	assert.Equal(Te, 3.0, cfg.Partition.Cutoff)
	assert.Equal(Te, ":9090", cfg.Metrics.Addr)
	loc := cfg.Locator()
	assert.Equal(Te, buffer.Nearest, loc.Policy)
	assert.Equal(Te, 3.5, loc.RMin)
	assert.True(Te, cfg.HistoryEnabled())
}

func TestLoadTOML(Te *testing.T) {
	cfg, err := Load("testdata/janus.toml")
	require.NoError(Te, err)
	require.NoError(Te, cfg.Validate())
	assert.Equal(Te, []int{4}, cfg.System.Center)
	assert.Equal(Te, "ONIOM-XS", cfg.Partition.Scheme)
	assert.True(Te, cfg.Partition.Modified)
	assert.Equal(Te, 12.0, cfg.MM.Cutoff)
	assert.Equal(Te, "zstd", cfg.History.Format)
	assert.Nil(Te, cfg.QMMM.Charge)
	assert.True(Te, cfg.QMMM.LinkAtoms)
}

func TestEnvOverrides(Te *testing.T) {
	Te.Setenv("JANUS_PARTITION_RMAX", "6.5")
	Te.Setenv("JANUS_SYSTEM_CENTER", "3, 7")
	Te.Setenv("JANUS_ENGINE_WORKERS", "8")
	Te.Setenv("JANUS_PARTITION_SCHEME", "DAS")
	cfg, err := Load("testdata/janus.toml")
	require.NoError(Te, err)
	assert.Equal(Te, 6.5, cfg.Partition.RMax)
	assert.Equal(Te, []int{3, 7}, cfg.System.Center)
	assert.Equal(Te, 8, cfg.Engine.Workers)
	assert.Equal(Te, "DAS", cfg.Partition.Scheme)
	require.NoError(Te, cfg.Validate())

	Te.Setenv("JANUS_ENGINE_WORKERS", "many")
	_, err = Load("")
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
}

func TestLoadErrors(Te *testing.T) {
	_, err := Load("testdata/nothere.yaml")
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
	name := filepath.Join(Te.TempDir(), "bad.toml")
	require.NoError(Te, os.WriteFile(name, []byte("[partition\nrMin = "), 0644))
	_, err = Load(name)
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
}

func TestValidate(Te *testing.T) {
	cfg := Default()
	assert.True(Te, errors.Is(cfg.Validate(), janus.ErrConfiguration), "no center")
	for name, mod := range map[string]func(*Config){
		"negative center": func(c *Config) { c.System.Center = []int{-1} },
		"radii":           func(c *Config) { c.Partition.RMin = 6 },
		"equal radii":     func(c *Config) { c.Partition.RMin = c.Partition.RMax },
		"negative radius": func(c *Config) { c.Partition.RMin = -1 },
		"policy":          func(c *Config) { c.Partition.Policy = "farthest" },
		"hot-spot":        func(c *Config) { c.Partition.Scheme = "Hot-Spot" },
		"scheme":          func(c *Config) { c.Partition.Scheme = "XYZ" },
		"kernel":          func(c *Config) { c.Partition.Kernel = "gaussian" },
		"embedding":       func(c *Config) { c.QMMM.Embedding = "polarizable" },
		"program":         func(c *Config) { c.QM.Program = "orca" },
		"workers":         func(c *Config) { c.Engine.Workers = 0 },
		"multiplicity":    func(c *Config) { c.System.Multi = 0 },
		"history format":  func(c *Config) { c.History.Format = "csv"; c.History.Path = "h" },
		"history path":    func(c *Config) { c.History.Format = "sqlite" },
	} {
		c := Default()
		c.System.Center = []int{0}
		require.NoError(Te, c.Validate(), name)
		mod(c)
		assert.True(Te, errors.Is(c.Validate(), janus.ErrConfiguration), name)
	}
}
