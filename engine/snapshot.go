// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/casskit/casskit/expr"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"
)

// The snapshot is a diagnostics artifact: it captures the constant table
// (labels, definitions, cached values) so a failing layout can be dumped and
// replayed. It is not a wire protocol; constraint definitions still arrive
// programmatically.

var (
	errSnapshotCorrupt = errors.New("engine: corrupt table snapshot")
	errSnapshotLive    = errors.New("engine: cannot restore a snapshot over installed constraints")
)

// node kinds of the flattened (postfix) definition encoding
const (
	snapLiteral uint8 = iota
	snapConstantRef
	snapBinary
)

type snapNode struct {
	Kind  uint8   `cbor:"1,keyasint"`
	Value float64 `cbor:"2,keyasint,omitempty"`
	Ref   uint32  `cbor:"3,keyasint,omitempty"`
	Op    uint8   `cbor:"4,keyasint,omitempty"`
}

type snapMeta struct {
	Labels    []string
	Values    []float64
	Resolved  []bool
	Orders    []uint64
	NextOrder uint64
}

// WriteTo serializes the constant table for diagnostics. Installed
// constraints are not serialized; they belong to the external solver's
// lifetime.
func (e *Engine) WriteTo(w io.Writer) (int64, error) {
	t := e.table

	meta := snapMeta{
		Labels:    make([]string, len(t.records)),
		Values:    make([]float64, len(t.records)),
		Resolved:  make([]bool, len(t.records)),
		Orders:    make([]uint64, len(t.records)),
		NextOrder: t.nextOrder,
	}
	defs := make([][]snapNode, len(t.records))
	for i := range t.records {
		rec := &t.records[i]
		meta.Labels[i] = rec.label
		meta.Values[i] = rec.value
		meta.Resolved[i] = rec.resolved
		meta.Orders[i] = rec.order
		if rec.def != nil {
			defs[i] = flatten(rec.def, nil)
		}
	}

	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return 0, err
	}

	// the two blocks are independent; write them in parallel
	var metaBuf, defsBuf bytes.Buffer
	g := new(errgroup.Group)
	g.Go(func() error { return em.NewEncoder(&metaBuf).Encode(meta) })
	g.Go(func() error { return em.NewEncoder(&defsBuf).Encode(defs) })
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var written int64
	header := [2]uint64{uint64(metaBuf.Len()), uint64(defsBuf.Len())}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return written, err
	}
	written += 16

	n, err := w.Write(metaBuf.Bytes())
	written += int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(defsBuf.Bytes())
	written += int64(n)
	return written, err
}

// ReadFrom replaces the engine's constant table with a previously written
// snapshot and rebuilds the dependent index. It refuses to run while
// constraints are installed.
func (e *Engine) ReadFrom(r io.Reader) (int64, error) {
	if len(e.installed) > 0 {
		return 0, errSnapshotLive
	}

	var read int64
	var header [2]uint64
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return read, err
	}
	read += 16

	metaRaw := make([]byte, header[0])
	n, err := io.ReadFull(r, metaRaw)
	read += int64(n)
	if err != nil {
		return read, err
	}
	defsRaw := make([]byte, header[1])
	n, err = io.ReadFull(r, defsRaw)
	read += int64(n)
	if err != nil {
		return read, err
	}

	var meta snapMeta
	var defs [][]snapNode
	if err := cbor.Unmarshal(metaRaw, &meta); err != nil {
		return read, err
	}
	if err := cbor.Unmarshal(defsRaw, &defs); err != nil {
		return read, err
	}
	if len(meta.Labels) != len(defs) || len(meta.Values) != len(defs) ||
		len(meta.Resolved) != len(defs) || len(meta.Orders) != len(defs) {
		return read, errSnapshotCorrupt
	}

	t := newTable(len(defs))
	if meta.NextOrder > 0 {
		t.nextOrder = meta.NextOrder
	}
	for i := range defs {
		id := t.declare(meta.Labels[i])
		rec := &t.records[id]
		rec.value = meta.Values[i]
		rec.resolved = meta.Resolved[i]
		rec.order = meta.Orders[i]
		if len(defs[i]) == 0 {
			continue
		}
		def, err := unflatten(defs[i])
		if err != nil {
			return read, err
		}
		rec.def = def
	}
	// rebuild the dependent index from the restored definitions
	for i := range t.records {
		if t.records[i].def == nil {
			continue
		}
		for _, ref := range expr.Constants(t.records[i].def) {
			if int(ref) >= len(t.records) {
				return read, errSnapshotCorrupt
			}
			t.records[ref].dependents.Set(uint(i))
		}
	}

	e.table = t
	return read, nil
}

func flatten(e expr.Expr, out []snapNode) []snapNode {
	switch n := e.(type) {
	case expr.Literal:
		return append(out, snapNode{Kind: snapLiteral, Value: n.Value})
	case expr.ConstantRef:
		return append(out, snapNode{Kind: snapConstantRef, Ref: uint32(n.Constant)})
	case expr.Binary:
		out = flatten(n.Left, out)
		out = flatten(n.Right, out)
		return append(out, snapNode{Kind: snapBinary, Op: uint8(n.Op)})
	default:
		// VariableRef never appears in a stored constant definition
		panic("unserializable expression node")
	}
}

func unflatten(nodes []snapNode) (expr.Expr, error) {
	stack := make([]expr.Expr, 0, 4)
	for _, n := range nodes {
		switch n.Kind {
		case snapLiteral:
			stack = append(stack, expr.Lit(n.Value))
		case snapConstantRef:
			stack = append(stack, expr.Const(expr.ConstantID(n.Ref)))
		case snapBinary:
			if len(stack) < 2 {
				return nil, errSnapshotCorrupt
			}
			r := stack[len(stack)-1]
			l := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, expr.Binary{Op: expr.Op(n.Op), Left: l, Right: r})
		default:
			return nil, errSnapshotCorrupt
		}
	}
	if len(stack) != 1 {
		return nil, errSnapshotCorrupt
	}
	return stack[0], nil
}
