/*
 * history_test.go, part of janus.
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

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhenglz/janus"
)

func sampleRecord(session string, run int, energy float64) *Record {
	return &Record{
		Session: session,
		RunID:   run,
		Time:    time.Date(2024, 5, 1, 12, 0, run, 0, time.UTC),
		Scheme:  "PAP",
		Energy:  energy,
		Forces:  map[int][3]float64{4: {1, 2, 3}, 0: {-1, 0, 0.5}},
		Partitions: []PartitionRecord{
			{ID: 0, Energy: -10, Weight: 0.25},
			{ID: 1, Groups: []int{3}, Energy: -11, Weight: 0.75},
		},
		BufferGroups: []GroupRecord{{ID: 3, MolName: "HOH", MolID: 12, Chain: "W", R: 4.1, S: 0.75}},
	}
}

func testStore(Te *testing.T, S Store) {
	ctx := context.Background()
	require.NoError(Te, S.Save(ctx, sampleRecord("b", 1, -3)))
	require.NoError(Te, S.Save(ctx, sampleRecord("a", 2, -2)))
	require.NoError(Te, S.Save(ctx, sampleRecord("a", 1, -1)))
	require.NoError(Te, S.Save(ctx, sampleRecord("a", 2, -20))) //replaces

	r, err := S.Load(ctx, "a", 2)
	require.NoError(Te, err)
	assert.Equal(Te, -20.0, r.Energy)
	assert.Equal(Te, [3]float64{1, 2, 3}, r.Forces[4])
	assert.Equal(Te, []int{0, 4}, r.Atoms())
	assert.Equal(Te, []int{3}, r.Partitions[1].Groups)
	assert.Equal(Te, "HOH", r.BufferGroups[0].MolName)
	assert.True(Te, r.Time.Equal(sampleRecord("a", 2, 0).Time))

	_, err = S.Load(ctx, "a", 3)
	assert.True(Te, errors.Is(err, ErrNotFound))

	recs, err := S.List(ctx, "a")
	require.NoError(Te, err)
	require.Len(Te, recs, 2)
	assert.Equal(Te, 1, recs[0].RunID)
	assert.Equal(Te, 2, recs[1].RunID)

	recs, err = S.List(ctx, "")
	require.NoError(Te, err)
	require.Len(Te, recs, 3)
	assert.Equal(Te, "b", recs[2].Session)
	require.NoError(Te, S.Close())
}

func TestFileStore(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "history.jsonl.zst")
	S, err := Open("zstd", name)
	require.NoError(Te, err)
	recs, err := S.List(context.Background(), "")
	require.NoError(Te, err)
	assert.Empty(Te, recs)
	testStore(Te, S)

	//reopening appends to the same file
	F, err := OpenFile(name)
	require.NoError(Te, err)
	defer F.Close()
	require.NoError(Te, F.Save(context.Background(), sampleRecord("c", 1, 0)))
	recs, err = F.List(context.Background(), "")
	require.NoError(Te, err)
	assert.Len(Te, recs, 4)
}

func TestSQLiteStore(Te *testing.T) {
	S, err := Open("sqlite", filepath.Join(Te.TempDir(), "db", "history.db"))
	require.NoError(Te, err)
	testStore(Te, S)
}

func TestOpenErrors(Te *testing.T) {
	_, err := Open("csv", filepath.Join(Te.TempDir(), "h"))
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
	_, err = Open("zstd", "")
	assert.True(Te, errors.Is(err, janus.ErrConfiguration))
}
