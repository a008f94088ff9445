/*
 * config.go, part of janus.
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

// Package config loads and validates the settings of an adaptive QM/MM run from a YAML
// or TOML file, with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/zhenglz/janus"
	"github.com/zhenglz/janus/aqmmm"
	"github.com/zhenglz/janus/buffer"
	"github.com/zhenglz/janus/history"
	"github.com/zhenglz/janus/qmmm"
	"github.com/zhenglz/janus/switching"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	System    SystemConfig    `yaml:"system" toml:"system"`
	Partition PartitionConfig `yaml:"partition" toml:"partition"`
	QMMM      QMMMConfig      `yaml:"qmmm" toml:"qmmm"`
	QM        QMConfig        `yaml:"qm" toml:"qm"`
	MM        MMConfig        `yaml:"mm" toml:"mm"`
	Engine    EngineConfig    `yaml:"engine" toml:"engine"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	History   HistoryConfig   `yaml:"history" toml:"history"`
}

// SystemConfig describes the simulated system.
type SystemConfig struct {
	Geometry string `yaml:"geometry" toml:"geometry"` //PDB file with the topology and first geometry
	Charge   int    `yaml:"charge" toml:"charge"`
	Multi    int    `yaml:"multiplicity" toml:"multiplicity"`
	Center   []int  `yaml:"center" toml:"center"` //0-based indexes of the QM center atoms
	//GuessBonds assigns bonds from distances when the file has no CONECT records.
	GuessBonds bool `yaml:"guessBonds" toml:"guessBonds"`
}

// PartitionConfig holds the buffer zone and interpolation settings.
type PartitionConfig struct {
	RMin     float64 `yaml:"rMin" toml:"rMin"`
	RMax     float64 `yaml:"rMax" toml:"rMax"`
	Policy   string  `yaml:"policy" toml:"policy"`
	Cutoff   float64 `yaml:"cutoff" toml:"cutoff"`
	Scheme   string  `yaml:"scheme" toml:"scheme"`
	Kernel   string  `yaml:"kernel" toml:"kernel"`
	Modified bool    `yaml:"modified" toml:"modified"`
}

// QMMMConfig holds the QM/MM coupling settings.
type QMMMConfig struct {
	Embedding string `yaml:"embedding" toml:"embedding"`
	LinkAtoms bool   `yaml:"linkAtoms" toml:"linkAtoms"`
	//Charge fixes the charge of the QM regions. If nil, it is taken from the partial charges.
	Charge *int `yaml:"charge" toml:"charge"`
}

// QMConfig holds the settings for the QM program.
type QMConfig struct {
	Program    string  `yaml:"program" toml:"program"`
	Command    string  `yaml:"command" toml:"command"`
	Method     string  `yaml:"method" toml:"method"`
	Dielectric float64 `yaml:"dielectric" toml:"dielectric"`
	CPUs       int     `yaml:"cpus" toml:"cpus"`
	WorkDir    string  `yaml:"workDir" toml:"workDir"`
	KeepFiles  bool    `yaml:"keepFiles" toml:"keepFiles"`
	Others     string  `yaml:"others" toml:"others"`
}

// MMConfig holds the classical force field settings.
type MMConfig struct {
	Cutoff float64 `yaml:"cutoff" toml:"cutoff"`
	Params string  `yaml:"params" toml:"params"` //YAML parameter file, added to TIP3P
}

// EngineConfig controls the evaluation of the partitions.
type EngineConfig struct {
	Workers       int `yaml:"workers" toml:"workers"`
	MaxPartitions int `yaml:"maxPartitions" toml:"maxPartitions"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Addr    string `yaml:"addr" toml:"addr"`
}

// HistoryConfig controls where the step results are kept.
type HistoryConfig struct {
	Format string `yaml:"format" toml:"format"` //zstd, sqlite or none
	Path   string `yaml:"path" toml:"path"`
}

// Default returns a Config with the default values.
func Default() *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	loc := buffer.DefaultOptions()
	return &Config{
		System: SystemConfig{Multi: 1},
		Partition: PartitionConfig{
			RMin:   loc.RMin,
			RMax:   loc.RMax,
			Policy: loc.Policy.String(),
			Cutoff: loc.Cutoff,
			Scheme: "PAP",
			Kernel: switching.Quintic.Name(),
		},
		QMMM: QMMMConfig{Embedding: "mechanical", LinkAtoms: true},
		QM: QMConfig{
			Program: "xtb",
			Command: "xtb",
			Method:  "gfn2",
			CPUs:    1,
		},
		MM:      MMConfig{Cutoff: 0},
		Engine:  EngineConfig{Workers: workers, MaxPartitions: 256},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: false, Addr: ":9090"},
		History: HistoryConfig{Format: "none"},
	}
}

// Load reads the configuration file at path (if path is not empty) on top of the defaults,
// and applies the JANUS_* environment overrides. Files ending in .toml are read as TOML,
// anything else as YAML. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, janus.NewError(janus.ErrConfiguration, "config.Load", fmt.Sprintf("reading config file %s: %v", path, err))
		}
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, janus.NewError(janus.ErrConfiguration, "config.Load", fmt.Sprintf("parsing config file %s: %v", path, err))
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envFloat(name string, dst *float64) error {
	if v := os.Getenv(name); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return janus.NewError(janus.ErrConfiguration, "config.Load", fmt.Sprintf("%s: %v", name, err))
		}
		*dst = f
	}
	return nil
}

func envInt(name string, dst *int) error {
	if v := os.Getenv(name); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return janus.NewError(janus.ErrConfiguration, "config.Load", fmt.Sprintf("%s: %v", name, err))
		}
		*dst = i
	}
	return nil
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// applyEnvOverrides reads the JANUS_* environment variables and overrides the
// corresponding fields.
func applyEnvOverrides(cfg *Config) error {
	envString("JANUS_SYSTEM_GEOMETRY", &cfg.System.Geometry)
	if v := os.Getenv("JANUS_SYSTEM_CENTER"); v != "" {
		var center []int
		for _, f := range strings.Split(v, ",") {
			i, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return janus.NewError(janus.ErrConfiguration, "config.Load", fmt.Sprintf("JANUS_SYSTEM_CENTER: %v", err))
			}
			center = append(center, i)
		}
		cfg.System.Center = center
	}
	envString("JANUS_PARTITION_SCHEME", &cfg.Partition.Scheme)
	envString("JANUS_PARTITION_KERNEL", &cfg.Partition.Kernel)
	envString("JANUS_PARTITION_POLICY", &cfg.Partition.Policy)
	envString("JANUS_QMMM_EMBEDDING", &cfg.QMMM.Embedding)
	envString("JANUS_QM_COMMAND", &cfg.QM.Command)
	envString("JANUS_QM_METHOD", &cfg.QM.Method)
	envString("JANUS_QM_WORKDIR", &cfg.QM.WorkDir)
	envString("JANUS_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("JANUS_LOGGING_FORMAT", &cfg.Logging.Format)
	envString("JANUS_METRICS_ADDR", &cfg.Metrics.Addr)
	envString("JANUS_HISTORY_FORMAT", &cfg.History.Format)
	envString("JANUS_HISTORY_PATH", &cfg.History.Path)
	for name, dst := range map[string]*float64{
		"JANUS_PARTITION_RMIN":   &cfg.Partition.RMin,
		"JANUS_PARTITION_RMAX":   &cfg.Partition.RMax,
		"JANUS_PARTITION_CUTOFF": &cfg.Partition.Cutoff,
		"JANUS_MM_CUTOFF":        &cfg.MM.Cutoff,
	} {
		if err := envFloat(name, dst); err != nil {
			return err
		}
	}
	for name, dst := range map[string]*int{
		"JANUS_QM_CPUS":              &cfg.QM.CPUs,
		"JANUS_ENGINE_WORKERS":       &cfg.Engine.Workers,
		"JANUS_ENGINE_MAXPARTITIONS": &cfg.Engine.MaxPartitions,
	} {
		if err := envInt(name, dst); err != nil {
			return err
		}
	}
	return nil
}

func cerr(format string, a ...any) error {
	return janus.NewError(janus.ErrConfiguration, "Config.Validate", fmt.Sprintf(format, a...))
}

// Validate returns an error wrapping janus.ErrConfiguration for the first problem found.
func (c *Config) Validate() error {
	if len(c.System.Center) == 0 {
		return cerr("empty QM center")
	}
	for _, a := range c.System.Center {
		if a < 0 {
			return cerr("negative QM center atom index %d", a)
		}
	}
	if c.System.Multi < 1 {
		return cerr("invalid multiplicity %d", c.System.Multi)
	}
	if err := c.Locator().Check(); err != nil {
		return janus.ErrDecorate(err, "Config.Validate")
	}
	if _, err := buffer.ParsePolicy(c.Partition.Policy); err != nil {
		return janus.ErrDecorate(err, "Config.Validate")
	}
	if _, err := aqmmm.New(c.Partition.Scheme); err != nil {
		return janus.ErrDecorate(err, "Config.Validate")
	}
	if _, err := switching.NewKernel(c.Partition.Kernel); err != nil {
		return janus.ErrDecorate(err, "Config.Validate")
	}
	if _, err := qmmm.ParseEmbedding(c.QMMM.Embedding); err != nil {
		return janus.ErrDecorate(err, "Config.Validate")
	}
	if p := strings.ToLower(c.QM.Program); p != "xtb" {
		return cerr("unsupported QM program %q", c.QM.Program)
	}
	if c.QM.CPUs < 1 {
		return cerr("QM cpus must be at least 1, not %d", c.QM.CPUs)
	}
	if c.MM.Cutoff < 0 {
		return cerr("negative MM cutoff %g", c.MM.Cutoff)
	}
	if c.Engine.Workers < 1 {
		return cerr("workers must be at least 1, not %d", c.Engine.Workers)
	}
	if c.Engine.MaxPartitions < 0 {
		return cerr("negative partition limit %d", c.Engine.MaxPartitions)
	}
	if c.HistoryEnabled() {
		if !history.ValidFormat(c.History.Format) {
			return cerr("unknown history format %q", c.History.Format)
		}
		if c.History.Path == "" {
			return cerr("history format %s needs a path", c.History.Format)
		}
	}
	return nil
}

// Locator returns the buffer zone options. An invalid policy gives COM; Validate reports it.
func (c *Config) Locator() *buffer.Options {
	policy, _ := buffer.ParsePolicy(c.Partition.Policy)
	return &buffer.Options{
		RMin:   c.Partition.RMin,
		RMax:   c.Partition.RMax,
		Policy: policy,
		Cutoff: c.Partition.Cutoff,
	}
}

// HistoryEnabled returns true if the step results are to be stored.
func (c *Config) HistoryEnabled() bool {
	f := strings.ToLower(c.History.Format)
	return f != "" && f != "none"
}

// OpenHistory opens the configured history store, or returns nil if there is none.
func (c *Config) OpenHistory() (history.Store, error) {
	if !c.HistoryEnabled() {
		return nil, nil
	}
	return history.Open(c.History.Format, c.History.Path)
}
