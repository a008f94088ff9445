/*
 * main_test.go, part of janus.
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

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhenglz/janus/history"
)

// execute runs the root command with args and returns what it printed.
func execute(Te *testing.T, args ...string) (string, error) {
	Te.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(Te *testing.T, body string) string {
	Te.Helper()
	name := filepath.Join(Te.TempDir(), "janus.yaml")
	require.NoError(Te, os.WriteFile(name, []byte(body), 0o644))
	return name
}

func TestVersionCmd(Te *testing.T) {
	assert.Equal(Te, "version", versionCmd.Use)
	original := version
	version = "test-1.0.0"
	defer func() { version = original }()

	out, err := execute(Te, "version", "-c", "")
	require.NoError(Te, err)
	assert.Contains(Te, out, "janus version test-1.0.0")
}

func TestBadConfig(Te *testing.T) {
	_, err := execute(Te, "version", "-c", filepath.Join(Te.TempDir(), "missing.yaml"))
	assert.Error(Te, err)
}

func TestPlotSwitchingCmd(Te *testing.T) {
	out := filepath.Join(Te.TempDir(), "switching.png")
	text, err := execute(Te, "plot-switching", "-c", "", "-o", out, "-k", "quintic,cosine")
	require.NoError(Te, err)
	assert.Contains(Te, text, "wrote")
	_, err = os.Stat(out)
	assert.NoError(Te, err)

	_, err = execute(Te, "plot-switching", "-c", "", "-o", out, "-k", "sigmoid")
	assert.Error(Te, err)
}

func TestHistoryCmd(Te *testing.T) {
	db := filepath.Join(Te.TempDir(), "history.db")
	store, err := history.OpenSQLite(db)
	require.NoError(Te, err)
	for run := 0; run < 2; run++ {
		rec := &history.Record{
			Session: "s1",
			RunID:   run,
			Time:    time.Date(2024, 5, 1, 12, 0, run, 0, time.UTC),
			Scheme:  "PAP",
			Energy:  -10.5 - float64(run),
			Forces:  map[int][3]float64{0: {1, 2, 3}, 4: {-1, 0, 0}},
			Partitions: []history.PartitionRecord{
				{ID: 0, Groups: nil, Energy: -10, Weight: 0.25},
				{ID: 1, Groups: []int{2}, Energy: -11, Weight: 0.75},
			},
			BufferGroups: []history.GroupRecord{{ID: 2, MolName: "HOH", MolID: 2, Chain: "W", R: 5.04, S: 0.6}},
		}
		require.NoError(Te, store.Save(context.Background(), rec))
	}
	require.NoError(Te, store.Close())
	conf := writeConfig(Te, fmt.Sprintf("history:\n  format: sqlite\n  path: %s\n", db))

	out, err := execute(Te, "history", "list", "-c", conf, "--session", "")
	require.NoError(Te, err)
	assert.Contains(Te, out, "s1")
	assert.Contains(Te, out, "-11.50000000")

	out, err = execute(Te, "history", "show", "s1", "1", "-c", conf)
	require.NoError(Te, err)
	assert.Contains(Te, out, "session s1 run 1 scheme PAP")
	assert.Contains(Te, out, "buffer group    2 W HOH2")
	assert.Contains(Te, out, "partition   1 groups [2]")

	_, err = execute(Te, "history", "show", "s1", "7", "-c", conf)
	assert.ErrorIs(Te, err, history.ErrNotFound)
	_, err = execute(Te, "history", "show", "s1", "one", "-c", conf)
	assert.Error(Te, err)

	_, err = execute(Te, "history", "list", "-c", "")
	assert.Error(Te, err)
}
