package dataset

import (
	"math"
	"strconv"
	"time"
)

// Kind tags the variant held by a Value
type Kind uint8

const (
	KindMissing Kind = iota
	KindNotApplicable
	KindNumber
	KindText
	KindTime
)

// String returns the kind name used in logs and reports
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNotApplicable:
		return "not_applicable"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is one cell of a Dataset.
// ⭐ SSOT: Missing / NotApplicable / Observed 구분은 이 타입으로만 표현
//
// Missing is an absent observation. NotApplicable is a recorded
// "does not apply" status (an active loan has no zero-balance code).
// Everything else is an observed number, text or timestamp.
type Value struct {
	kind Kind
	num  float64
	str  string
	ts   time.Time
}

// Null returns a missing value
func Null() Value { return Value{kind: KindMissing} }

// NA returns the not-applicable sentinel
func NA() Value { return Value{kind: KindNotApplicable} }

// Num returns an observed number. NaN is stored as Missing.
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: KindNumber, num: f}
}

// Text returns an observed string
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Time returns an observed timestamp
func Time(t time.Time) Value { return Value{kind: KindTime, ts: t} }

// Kind returns the variant tag
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the value is absent
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsNotApplicable reports whether the value is the not-applicable sentinel
func (v Value) IsNotApplicable() bool { return v.kind == KindNotApplicable }

// IsObserved reports whether the value carries data
func (v Value) IsObserved() bool { return v.kind >= KindNumber }

// Float returns the number held by the value
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// TimeValue returns the timestamp held by the value
func (v Value) TimeValue() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.ts, true
}

// String returns the canonical text form.
// Numbers use the shortest representation ("1", "0.5"), times use YYYY-MM-DD.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.str
	case KindTime:
		return v.ts.Format("2006-01-02")
	case KindNotApplicable:
		return "not_applicable"
	default:
		return ""
	}
}

// Equal compares kind and payload. Two missing values are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.str == o.str
	case KindTime:
		return v.ts.Equal(o.ts)
	default:
		return true
	}
}

// Key returns a string that is identical for Equal values
func (v Value) Key() string {
	switch v.kind {
	case KindTime:
		return "t:" + strconv.FormatInt(v.ts.UnixNano(), 10)
	case KindNumber:
		return "n:" + v.String()
	case KindText:
		return "s:" + v.str
	case KindNotApplicable:
		return "na"
	default:
		return "null"
	}
}

// MonthIndex maps a reporting period to year*12 + month.
// Timestamps and YYYYMM numbers are accepted.
func (v Value) MonthIndex() (int, bool) {
	switch v.kind {
	case KindTime:
		return MonthIndex(v.ts), true
	case KindNumber:
		n := int(v.num)
		if float64(n) != v.num || n < 100001 {
			return 0, false
		}
		month := n % 100
		if month < 1 || month > 12 {
			return 0, false
		}
		return (n/100)*12 + month, true
	default:
		return 0, false
	}
}

// MonthIndex converts a timestamp into a monotonically increasing month counter
func MonthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}

// Less orders observed values of the same kind. Other combinations compare false.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num < o.num
	case KindText:
		return v.str < o.str
	case KindTime:
		return v.ts.Before(o.ts)
	default:
		return false
	}
}
