/*
 * history.go, part of janus.
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

// Package history keeps the results of the adaptive QM/MM steps, keyed by session
// and run id. Two stores are available: a zstd-compressed JSON lines file, and
// an SQLite database.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zhenglz/janus"
)

// ErrNotFound is returned by Load when there is no record for the given key.
var ErrNotFound = errors.New("history: record not found")

// PartitionRecord summarizes one partition of a step.
type PartitionRecord struct {
	ID     int     `json:"id"`
	Groups []int   `json:"groups"`
	Energy float64 `json:"energy"`
	Weight float64 `json:"weight"`
}

// GroupRecord summarizes one buffer group of a step.
type GroupRecord struct {
	ID      int     `json:"id"`
	MolName string  `json:"resname"`
	MolID   int     `json:"resid"`
	Chain   string  `json:"chain"`
	R       float64 `json:"r"`
	S       float64 `json:"s"`
}

// Record is what is kept from a step. Energies in kcal/mol, forces in kcal/mol/A.
type Record struct {
	Session      string             `json:"session"`
	RunID        int                `json:"run"`
	Time         time.Time          `json:"time"`
	Scheme       string             `json:"scheme"`
	Energy       float64            `json:"energy"`
	Forces       map[int][3]float64 `json:"forces"`
	Partitions   []PartitionRecord  `json:"partitions"`
	BufferGroups []GroupRecord      `json:"buffer"`
}

// Atoms returns the indexes of the atoms with forces, sorted.
func (R *Record) Atoms() []int {
	ret := make([]int, 0, len(R.Forces))
	for i := range R.Forces {
		ret = append(ret, i)
	}
	sort.Ints(ret)
	return ret
}

// Store saves and retrieves records. Implementations are safe for concurrent use.
type Store interface {
	Save(ctx context.Context, r *Record) error
	//Load returns the record for the session and run, or ErrNotFound.
	Load(ctx context.Context, session string, runID int) (*Record, error)
	//List returns all the records of the session, or of every session if
	//session is empty, sorted by session and run.
	List(ctx context.Context, session string) ([]*Record, error)
	Close() error
}

// ValidFormat returns true if format names a store Open knows.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "zstd", "jsonl", "file", "sqlite", "sqlite3", "db":
		return true
	}
	return false
}

// Open opens the store of the given format ("zstd" or "sqlite") at path.
func Open(format, path string) (Store, error) {
	if path == "" {
		return nil, janus.NewError(janus.ErrConfiguration, "history.Open", "empty history path")
	}
	if !ValidFormat(format) {
		return nil, janus.NewError(janus.ErrConfiguration, "history.Open", fmt.Sprintf("unknown history format %q", format))
	}
	switch strings.ToLower(format) {
	case "sqlite", "sqlite3", "db":
		S, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return S, nil
	default:
		F, err := OpenFile(path)
		if err != nil {
			return nil, err
		}
		return F, nil
	}
}

func sortRecords(recs []*Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Session != recs[j].Session {
			return recs[i].Session < recs[j].Session
		}
		return recs[i].RunID < recs[j].RunID
	})
}
