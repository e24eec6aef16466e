// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package solver

import "github.com/casskit/casskit/constraint"

// Recorder is an in-memory Adapter that performs no solving: it records what
// the engine sends across the boundary. Tests and examples use it to observe
// installed constraints, replacement order and re-optimization batching.
type Recorder struct {
	next Handle

	// Installed holds the latest linear form per live handle.
	Installed map[Handle]constraint.Constraint

	// Replaced lists handles in the order Replace was called.
	Replaced []Handle

	// Reoptimizations counts Reoptimize calls.
	Reoptimizations int

	// FailInstall, when non-nil, is returned by the next Install call.
	FailInstall error

	// FailReplace, when non-nil, is consulted per handle to inject a Replace
	// failure.
	FailReplace func(Handle) error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Installed: make(map[Handle]constraint.Constraint)}
}

func (r *Recorder) Install(c constraint.Constraint) (Handle, error) {
	if r.FailInstall != nil {
		err := r.FailInstall
		r.FailInstall = nil
		return 0, err
	}
	h := r.next
	r.next++
	r.Installed[h] = c.Clone()
	return h, nil
}

func (r *Recorder) Replace(h Handle, c constraint.Constraint) error {
	if r.FailReplace != nil {
		if err := r.FailReplace(h); err != nil {
			return err
		}
	}
	r.Installed[h] = c.Clone()
	r.Replaced = append(r.Replaced, h)
	return nil
}

func (r *Recorder) Remove(h Handle) {
	delete(r.Installed, h)
}

func (r *Recorder) Reoptimize() error {
	r.Reoptimizations++
	return nil
}
