/*
 * errors.go, part of janus.
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

package janus

import (
	"errors"
	"fmt"
	"strings"
)

// The error kinds. Every error returned by janus packages wraps one of these, so
// callers can tell them apart with errors.Is.
var (
	// ErrConfiguration: missing or invalid QM center, unsupported scheme,
	// R_min >= R_max and the like. The step never starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrOverlappingDefinition: two buffer groups claim the same atom, or a force
	// correction was attributed twice to the same atom.
	ErrOverlappingDefinition = errors.New("overlapping buffer atom definitions")
	// ErrEngineFailure: the QM or MM engine failed for some partition.
	ErrEngineFailure = errors.New("engine failure")
)

// CError is the error type of the janus package. It fulfills the Error interface.
type CError struct {
	kind     error
	msg      string
	deco     []string
	critical bool
}

// NewError returns a critical error of the given kind, decorated with caller.
func NewError(kind error, caller, msg string) *CError {
	err := &CError{kind: kind, msg: msg, critical: true}
	err.Decorate(caller)
	return err
}

// Error returns a string with an error message.
func (err *CError) Error() string {
	if err.kind == nil {
		return err.msg
	}
	if len(err.deco) == 0 {
		return fmt.Sprintf("%s: %s", err.kind, err.msg)
	}
	return fmt.Sprintf("%s: %s (%s)", err.kind, err.msg, strings.Join(err.deco, " < "))
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *CError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

// Critical returns whether the error is critical or it can be ignored
func (err *CError) Critical() bool { return err.critical }

// Unwrap returns the kind of the error.
func (err *CError) Unwrap() error { return err.kind }

// ErrDecorate decorates err with the caller's name if err, or something
// it wraps, implements Error. Other errors are returned unchanged.
func ErrDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var err2 Error
	if errors.As(err, &err2) {
		err2.Decorate(caller)
	}
	return err
}

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use CError.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const ErrOutOfRange = PanicMsg("janus: index out of range")
