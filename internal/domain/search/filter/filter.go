package filter

import (
	"fmt"
	"math"

	"github.com/whokrish/vectorbeats/internal/domain"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
)

// MaxConditions is the maximum number of conditions in one expression.
const MaxConditions = 32

// Range object keys accepted by Parse. Other keys are ignored.
const (
	KeyGT  = "gt"
	KeyGTE = "gte"
	KeyLT  = "lt"
	KeyLTE = "lte"
)

// Expression is an AND of conditions. The zero Expression matches everything.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(conditions ...Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d): %w", MaxConditions, domain.ErrInvalidFilter)
	}
	return Expression{conditions: conditions}, nil
}

// Conditions returns the AND-ed conditions.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// And returns an expression holding the conditions of both.
func (e Expression) And(o Expression) (Expression, error) {
	all := make([]Condition, 0, len(e.conditions)+len(o.conditions))
	all = append(all, e.conditions...)
	all = append(all, o.conditions...)
	return NewExpression(all...)
}

// Matches evaluates the expression against a payload.
// A list-valued payload field matches when any element matches.
func (e Expression) Matches(m metadata.Metadata) bool {
	for _, c := range e.conditions {
		if !c.Matches(m) {
			return false
		}
	}
	return true
}

// Op is the kind of a condition.
type Op uint8

const (
	// OpEquals matches one scalar exactly.
	OpEquals Op = iota
	// OpAnyOf matches any of a set of scalars.
	OpAnyOf
	// OpRange matches a numeric range.
	OpRange
)

// Condition is a single filter clause on one field.
type Condition struct {
	key    string
	op     Op
	values []metadata.Value
	rng    Range
}

// Equals creates an exact match condition on a scalar.
func Equals(key string, v metadata.Value) (Condition, error) {
	if key == "" {
		return Condition{}, domain.NewFilterError(key, "key is required")
	}
	if !v.IsScalar() {
		return Condition{}, domain.NewFilterError(key, "match value must be a string, number or bool, got "+v.Kind().String())
	}
	return Condition{key: key, op: OpEquals, values: []metadata.Value{v}}, nil
}

// AnyOf creates an OR-group of exact matches.
func AnyOf(key string, vs ...metadata.Value) (Condition, error) {
	if key == "" {
		return Condition{}, domain.NewFilterError(key, "key is required")
	}
	if len(vs) == 0 {
		return Condition{}, domain.NewFilterError(key, "at least one value is required")
	}
	for i, v := range vs {
		if !v.IsScalar() {
			return Condition{}, domain.NewFilterError(key, fmt.Sprintf("value %d must be a string, number or bool", i))
		}
	}
	return Condition{key: key, op: OpAnyOf, values: vs}, nil
}

// InRange creates a numeric range condition.
func InRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, domain.NewFilterError(key, "key is required")
	}
	return Condition{key: key, op: OpRange, rng: r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Op returns the condition kind.
func (c Condition) Op() Op { return c.op }

// Value returns the match value of an OpEquals condition.
func (c Condition) Value() metadata.Value {
	if len(c.values) == 0 {
		return metadata.Null()
	}
	return c.values[0]
}

// Values returns the match values (one for OpEquals).
func (c Condition) Values() []metadata.Value { return c.values }

// Range returns the bounds of an OpRange condition.
func (c Condition) Range() Range { return c.rng }

// Matches evaluates the condition against a payload.
func (c Condition) Matches(m metadata.Metadata) bool {
	v, ok := m[c.key]
	if !ok {
		return false
	}
	if list, isList := v.AsList(); isList {
		for _, e := range list {
			if c.matchValue(e) {
				return true
			}
		}
		return false
	}
	return c.matchValue(v)
}

func (c Condition) matchValue(v metadata.Value) bool {
	switch c.op {
	case OpEquals, OpAnyOf:
		for _, want := range c.values {
			if want.Equal(v) {
				return true
			}
		}
		return false
	case OpRange:
		f, ok := v.AsFloat()
		return ok && c.rng.Contains(f)
	default:
		return false
	}
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range. At least one finite boundary is required.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	for _, b := range []*float64{gt, gte, lt, lte} {
		if b != nil && (math.IsNaN(*b) || math.IsInf(*b, 0)) {
			return Range{}, fmt.Errorf("range boundaries must be finite")
		}
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Contains reports whether f satisfies every bound.
func (r Range) Contains(f float64) bool {
	if r.gt != nil && !(f > *r.gt) {
		return false
	}
	if r.gte != nil && !(f >= *r.gte) {
		return false
	}
	if r.lt != nil && !(f < *r.lt) {
		return false
	}
	if r.lte != nil && !(f <= *r.lte) {
		return false
	}
	return true
}

// Parse converts a generic filter mapping into an Expression.
//
// A scalar becomes an exact match, a list an OR-group, and a mapping a range
// built from its gt/gte/lt/lte keys. Empty lists and mappings without range
// keys contribute no condition. Fields are processed in sorted key order.
func Parse(raw metadata.Metadata) (Expression, error) {
	if len(raw) == 0 {
		return Expression{}, nil
	}
	conds := make([]Condition, 0, len(raw))
	for _, key := range raw.Keys() {
		c, ok, err := parseField(key, raw[key])
		if err != nil {
			return Expression{}, err
		}
		if ok {
			conds = append(conds, c)
		}
	}
	return NewExpression(conds...)
}

// ParseMap is Parse over plain Go values.
func ParseMap(raw map[string]any) (Expression, error) {
	m, err := metadata.FromMap(raw)
	if err != nil {
		return Expression{}, fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
	}
	return Parse(m)
}

func parseField(key string, v metadata.Value) (Condition, bool, error) {
	switch v.Kind() {
	case metadata.KindNull:
		return Condition{}, false, domain.NewFilterError(key, "null is not a valid filter value")
	case metadata.KindList:
		list, _ := v.AsList()
		if len(list) == 0 {
			return Condition{}, false, nil
		}
		c, err := AnyOf(key, list...)
		return c, err == nil, err
	case metadata.KindMap:
		obj, _ := v.AsMap()
		return parseRange(key, obj)
	default:
		c, err := Equals(key, v)
		return c, err == nil, err
	}
}

func parseRange(key string, obj metadata.Metadata) (Condition, bool, error) {
	var bounds [4]*float64
	found := false
	for i, name := range []string{KeyGT, KeyGTE, KeyLT, KeyLTE} {
		v, ok := obj[name]
		if !ok {
			continue
		}
		f, isNum := v.AsFloat()
		if !isNum {
			return Condition{}, false, domain.NewFilterError(key, fmt.Sprintf("range bound %q must be a number", name))
		}
		bounds[i] = &f
		found = true
	}
	if !found {
		return Condition{}, false, nil
	}
	r, err := NewRangeFilter(bounds[0], bounds[1], bounds[2], bounds[3])
	if err != nil {
		return Condition{}, false, domain.NewFilterError(key, err.Error())
	}
	c, err := InRange(key, r)
	return c, err == nil, err
}
