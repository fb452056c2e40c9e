package qdrant

import (
	"github.com/qdrant/go-client/qdrant"

	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

// TranslateFilter converts a filter expression into a qdrant predicate.
//
// Conditions are AND-ed under must. An OR-group becomes a nested filter whose
// should clauses are exact matches. An empty expression yields nil.
func TranslateFilter(expr filter.Expression) *qdrant.Filter {
	if expr.IsEmpty() {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(expr.Conditions()))
	for _, c := range expr.Conditions() {
		must = append(must, translateCondition(c))
	}
	return &qdrant.Filter{Must: must}
}

func translateCondition(c filter.Condition) *qdrant.Condition {
	switch c.Op() {
	case filter.OpAnyOf:
		should := make([]*qdrant.Condition, 0, len(c.Values()))
		for _, v := range c.Values() {
			should = append(should, matchValue(c.Key(), v))
		}
		return qdrant.NewFilterAsCondition(&qdrant.Filter{Should: should})
	case filter.OpRange:
		r := c.Range()
		return qdrant.NewRange(c.Key(), &qdrant.Range{Gt: r.GT(), Gte: r.GTE(), Lt: r.LT(), Lte: r.LTE()})
	default:
		return matchValue(c.Key(), c.Value())
	}
}

// matchValue builds an exact match for a scalar.
// Integral numbers use an integer match; fractional numbers a closed range.
func matchValue(key string, v metadata.Value) *qdrant.Condition {
	switch v.Kind() {
	case metadata.KindBool:
		b, _ := v.AsBool()
		return qdrant.NewMatchBool(key, b)
	case metadata.KindInt, metadata.KindFloat:
		if i, ok := v.AsInt(); ok {
			return qdrant.NewMatchInt(key, i)
		}
		f, _ := v.AsFloat()
		return qdrant.NewRange(key, &qdrant.Range{Gte: &f, Lte: &f})
	default:
		s, _ := v.AsString()
		return qdrant.NewMatchKeyword(key, s)
	}
}
