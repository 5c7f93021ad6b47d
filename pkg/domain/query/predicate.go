package query

import (
	"strings"
	"time"
)

// Record is anything a predicate can be evaluated against. FieldValue returns false when the
// record has no value for the field.
type Record interface {
	FieldValue(name string) (any, bool)
}

// Kind is the operator of a predicate node
type Kind string

const (
	KindAll      Kind = "all"
	KindNothing  Kind = "nothing"
	KindEq       Kind = "eq"
	KindContains Kind = "contains"
	KindBetween  Kind = "between"
	KindAnd      Kind = "and"
)

// Predicate is a storage independent filter expression. Backends either evaluate it with
// Match or translate it into their own query language.
type Predicate struct {
	Kind  Kind
	Field string

	// Value is the operand of Eq (int64 or string) and Contains (string)
	Value any

	// From and To are the inclusive bounds of Between
	From time.Time
	To   time.Time

	// Terms are the operands of And. They never contain another And, All or Nothing.
	Terms []Predicate
}

// All matches every record
func All() Predicate {
	return Predicate{Kind: KindAll}
}

// Nothing matches no record
func Nothing() Predicate {
	return Predicate{Kind: KindNothing}
}

// Eq matches records whose field equals v exactly
func Eq(field string, v any) Predicate {
	return Predicate{Kind: KindEq, Field: field, Value: normalize(v)}
}

// Contains matches records whose text field contains s, ignoring case
func Contains(field, s string) Predicate {
	return Predicate{Kind: KindContains, Field: field, Value: s}
}

// Between matches records whose time field is within [from, to]
func Between(field string, from, to time.Time) Predicate {
	return Predicate{Kind: KindBetween, Field: field, From: from, To: to}
}

// And composes predicates with logical AND. Nested conjunctions are flattened, All terms are
// dropped and a single Nothing term collapses the whole expression. An empty conjunction is All.
func And(preds ...Predicate) Predicate {
	var terms []Predicate
	for _, p := range preds {
		switch p.Kind {
		case KindAll:
			continue
		case KindNothing:
			return Nothing()
		case KindAnd:
			terms = append(terms, p.Terms...)
		default:
			terms = append(terms, p)
		}
	}

	switch len(terms) {
	case 0:
		return All()
	case 1:
		return terms[0]
	default:
		return Predicate{Kind: KindAnd, Terms: terms}
	}
}

// Conjuncts returns the leaf terms of p. All yields no terms.
func (p Predicate) Conjuncts() []Predicate {
	switch p.Kind {
	case KindAll:
		return nil
	case KindAnd:
		return p.Terms
	default:
		return []Predicate{p}
	}
}

// IsAll reports whether p matches everything
func (p Predicate) IsAll() bool {
	return p.Kind == KindAll || p.Kind == ""
}

// Match evaluates p against r
func (p Predicate) Match(r Record) bool {
	switch p.Kind {
	case KindAll, "":
		return true
	case KindNothing:
		return false
	case KindAnd:
		for _, t := range p.Terms {
			if !t.Match(r) {
				return false
			}
		}
		return true
	}

	v, ok := r.FieldValue(p.Field)
	if !ok {
		return false
	}

	switch p.Kind {
	case KindEq:
		return normalize(v) == p.Value
	case KindContains:
		s, ok := v.(string)
		if !ok {
			return false
		}
		sub, _ := p.Value.(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	case KindBetween:
		ts, ok := v.(time.Time)
		if !ok {
			return false
		}
		return !ts.Before(p.From) && !ts.After(p.To)
	default:
		return false
	}
}

// normalize maps integer kinds to int64 so Eq compares by value
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}
