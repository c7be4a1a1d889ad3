package rules

import (
	"github.com/wonny/loanqa/internal/dataset"
)

// Kind identifies a predicate family
type Kind string

const (
	KindRange   Kind = "range"   // numeric bounds
	KindInSet   Kind = "in_set"  // membership in an allowed code list
	KindNumeric Kind = "numeric" // observed value must be a number
	KindNotNull Kind = "not_null"
)

// Rule is a serializable (column, predicate) descriptor.
//
// Evaluation policy per kind:
//   - range: missing passes, any non-number violates, bounds are inclusive
//     unless ExclusiveMin / ExclusiveMax is set
//   - in_set: the canonical string form must be in Values; missing and
//     not-applicable violate unless AllowMissing / AllowNotApplicable
//   - numeric: missing passes, text / time / not-applicable violate
//   - not_null: only missing violates
type Rule struct {
	Column             string   `yaml:"column" json:"column"`
	Kind               Kind     `yaml:"kind" json:"kind"`
	Min                *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max                *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	ExclusiveMin       bool     `yaml:"exclusive_min,omitempty" json:"exclusive_min,omitempty"`
	ExclusiveMax       bool     `yaml:"exclusive_max,omitempty" json:"exclusive_max,omitempty"`
	Values             []string `yaml:"values,omitempty" json:"values,omitempty"`
	AllowMissing       bool     `yaml:"allow_missing,omitempty" json:"allow_missing,omitempty"`
	AllowNotApplicable bool     `yaml:"allow_not_applicable,omitempty" json:"allow_not_applicable,omitempty"`
	Description        string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// Mask marks rule failures row by row
type Mask []bool

// Count returns the number of true entries
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Evaluate applies the predicate to a whole column.
// It never panics on unexpected value kinds; they are reported as violations.
func (r Rule) Evaluate(col []dataset.Value) Mask {
	mask := make(Mask, len(col))

	var allowed map[string]struct{}
	if r.Kind == KindInSet {
		allowed = make(map[string]struct{}, len(r.Values))
		for _, v := range r.Values {
			allowed[v] = struct{}{}
		}
	}

	for i, v := range col {
		mask[i] = r.violates(v, allowed)
	}
	return mask
}

func (r Rule) violates(v dataset.Value, allowed map[string]struct{}) bool {
	switch r.Kind {
	case KindRange:
		if v.IsMissing() {
			return false
		}
		f, ok := v.Float()
		if !ok {
			return true
		}
		return !r.inRange(f)

	case KindInSet:
		if v.IsMissing() {
			return !r.AllowMissing
		}
		if v.IsNotApplicable() {
			return !r.AllowNotApplicable
		}
		_, ok := allowed[v.String()]
		return !ok

	case KindNumeric:
		if v.IsMissing() {
			return false
		}
		_, ok := v.Float()
		return !ok

	case KindNotNull:
		return v.IsMissing()

	default:
		return false
	}
}

func (r Rule) inRange(f float64) bool {
	if r.Min != nil {
		if r.ExclusiveMin && f <= *r.Min {
			return false
		}
		if !r.ExclusiveMin && f < *r.Min {
			return false
		}
	}
	if r.Max != nil {
		if r.ExclusiveMax && f >= *r.Max {
			return false
		}
		if !r.ExclusiveMax && f > *r.Max {
			return false
		}
	}
	return true
}

// Float returns a pointer to f, for building range rules in code
func Float(f float64) *float64 {
	return &f
}
