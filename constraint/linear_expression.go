// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package constraint

import "github.com/casskit/casskit/expr"

// A LinearExpression is a linear combination of Term, sorted by variable id
// with at most one term per variable.
type LinearExpression []Term

// Clone returns a copy of the underlying slice.
func (l LinearExpression) Clone() LinearExpression {
	res := make(LinearExpression, len(l))
	copy(res, l)
	return res
}

// CoeffOf returns the coefficient of v, or 0 if v does not appear.
func (l LinearExpression) CoeffOf(v expr.VariableID) float64 {
	for _, t := range l {
		if t.VID == v {
			return t.Coeff
		}
	}
	return 0
}

func (l LinearExpression) String(r Resolver) string {
	sbb := NewStringBuilder(r)
	sbb.WriteLinearExpression(l)
	return sbb.String()
}
