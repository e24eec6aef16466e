package constraint

import (
	"strconv"
	"strings"

	"github.com/casskit/casskit/expr"
)

// Resolver allows pretty printing of constraints.
type Resolver interface {
	ConstantToString(id expr.ConstantID) string
	VariableToString(id expr.VariableID) string
}

// StringBuilder is a helper to build strings from constraints, linear
// expressions or terms. It embeds a strings.Builder object for convenience.
type StringBuilder struct {
	strings.Builder
	Resolver
}

// NewStringBuilder returns a new StringBuilder.
func NewStringBuilder(r Resolver) *StringBuilder {
	return &StringBuilder{Resolver: r}
}

// WriteLinearExpression appends the linear expression to the current buffer.
func (sbb *StringBuilder) WriteLinearExpression(l LinearExpression) {
	for i := 0; i < len(l); i++ {
		sbb.WriteTerm(l[i])
		if i+1 < len(l) {
			sbb.WriteString(" + ")
		}
	}
}

// WriteTerm appends the term to the current buffer.
func (sbb *StringBuilder) WriteTerm(t Term) {
	if t.Coeff == 0 {
		sbb.WriteByte('0')
		return
	}
	vs := sbb.VariableToString(t.VID)
	if t.Coeff == 1 {
		// print the variable only
		sbb.WriteString(vs)
		return
	}
	sbb.WriteString(strconv.FormatFloat(t.Coeff, 'g', -1, 64))
	sbb.WriteString("⋅")
	sbb.WriteString(vs)
}

// WriteConstraint appends the full constraint, relation to zero included.
func (sbb *StringBuilder) WriteConstraint(c Constraint) {
	sbb.WriteLinearExpression(c.Terms)
	if c.Offset != 0 {
		sbb.WriteString(" + ")
		sbb.WriteString(strconv.FormatFloat(c.Offset, 'g', -1, 64))
	}
	sbb.WriteByte(' ')
	sbb.WriteString(c.Relation.String())
	sbb.WriteString(" 0")
}
