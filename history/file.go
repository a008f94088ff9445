/*
 * file.go, part of janus.
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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// FileStore appends each record as an independent zstd frame holding one JSON line.
// The file can be read with any zstd tool, as the frames are concatenated.
// A later record with the same session and run replaces the earlier ones.
type FileStore struct {
	mu   sync.Mutex
	name string
	f    *os.File
	enc  *zstd.Encoder
}

// OpenFile opens, or creates, the file store name.
func OpenFile(name string) (*FileStore, error) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", name, err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("history: %w", err)
	}
	return &FileStore{name: name, f: f, enc: enc}, nil
}

func (F *FileStore) Save(ctx context.Context, r *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("history: encoding run %d: %w", r.RunID, err)
	}
	line = append(line, '\n')
	F.mu.Lock()
	defer F.mu.Unlock()
	if F.f == nil {
		return fmt.Errorf("history: %s is closed", F.name)
	}
	if _, err := F.f.Write(F.enc.EncodeAll(line, nil)); err != nil {
		return fmt.Errorf("history: writing run %d: %w", r.RunID, err)
	}
	return nil
}

// all reads every record in the file, keeping the last one for each key.
func (F *FileStore) all(ctx context.Context, keep func(*Record) bool) ([]*Record, error) {
	F.mu.Lock()
	defer F.mu.Unlock()
	f, err := os.Open(F.name)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer f.Close()
	if st, err := f.Stat(); err != nil || st.Size() == 0 {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer dec.Close()
	type key struct {
		session string
		run     int
	}
	index := make(map[key]int)
	var ret []*Record
	jd := json.NewDecoder(dec)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := new(Record)
		if err := jd.Decode(r); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("history: reading %s: %w", F.name, err)
		}
		if !keep(r) {
			continue
		}
		k := key{r.Session, r.RunID}
		if i, ok := index[k]; ok {
			ret[i] = r
			continue
		}
		index[k] = len(ret)
		ret = append(ret, r)
	}
	return ret, nil
}

func (F *FileStore) Load(ctx context.Context, session string, runID int) (*Record, error) {
	recs, err := F.all(ctx, func(r *Record) bool { return r.Session == session && r.RunID == runID })
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("session %s run %d: %w", session, runID, ErrNotFound)
	}
	return recs[0], nil
}

func (F *FileStore) List(ctx context.Context, session string) ([]*Record, error) {
	recs, err := F.all(ctx, func(r *Record) bool { return session == "" || r.Session == session })
	if err != nil {
		return nil, err
	}
	sortRecords(recs)
	return recs, nil
}

func (F *FileStore) Close() error {
	F.mu.Lock()
	defer F.mu.Unlock()
	if F.f == nil {
		return nil
	}
	F.enc.Close()
	err := F.f.Close()
	F.f = nil
	return err
}
