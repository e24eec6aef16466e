// Copyright 2025 Casskit Contributors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package constraint

import "github.com/casskit/casskit/expr"

// Term represents coeff · variable in a linear constraint.
type Term struct {
	VID   expr.VariableID
	Coeff float64
}

// VariableID returns the decision variable this term scales.
func (t Term) VariableID() expr.VariableID { return t.VID }
