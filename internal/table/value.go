// Package table holds the in-memory tabular model shared by the loader,
// cleaner, chart renderer and workbook writer.
package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the semantic type of a column or value.
type Kind int

const (
	Text Kind = iota
	Number
	Date
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "text"
	}
}

// Value is a single cell. The zero Value is a missing text cell.
type Value struct {
	kind  Kind
	valid bool
	num   float64
	str   string
	t     time.Time
}

// Null returns a missing value.
func Null() Value {
	return Value{}
}

// Num returns a numeric value. NaN is treated as missing.
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Value{kind: Number}
	}
	return Value{kind: Number, valid: true, num: f}
}

// Str returns a text value.
func Str(s string) Value {
	return Value{kind: Text, valid: true, str: s}
}

// Time returns a date value.
func Time(t time.Time) Value {
	return Value{kind: Date, valid: true, t: t}
}

func (v Value) IsNull() bool {
	return !v.valid
}

func (v Value) Kind() Kind {
	return v.kind
}

// Float returns the numeric content of v.
func (v Value) Float() (float64, bool) {
	if !v.valid || v.kind != Number {
		return 0, false
	}
	return v.num, true
}

// Text returns the string content of v, or "" if v is not a text value.
func (v Value) Text() string {
	if !v.valid || v.kind != Text {
		return ""
	}
	return v.str
}

// Date returns the time content of v.
func (v Value) Date() (time.Time, bool) {
	if !v.valid || v.kind != Date {
		return time.Time{}, false
	}
	return v.t, true
}

// String renders v for display, category counting and row keys.
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Date:
		return FormatDate(v.t)
	default:
		return v.str
	}
}

// Equal reports whether v and o hold the same kind and content.
// Two missing values are equal.
func (v Value) Equal(o Value) bool {
	if !v.valid || !o.valid {
		return v.valid == o.valid
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Number:
		return v.num == o.num
	case Date:
		return v.t.Equal(o.t)
	default:
		return v.str == o.str
	}
}

// As converts v to kind k. Values that cannot be converted become missing.
func (v Value) As(k Kind) Value {
	if !v.valid {
		return Value{kind: k}
	}
	if v.kind == k {
		return v
	}
	switch k {
	case Text:
		return Str(v.String())
	case Number:
		switch v.kind {
		case Date:
			return Num(TimeToSerial(v.t))
		case Text:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
			if err != nil {
				return Value{kind: Number}
			}
			return Num(f)
		}
	case Date:
		switch v.kind {
		case Number:
			t, err := SerialToTime(v.num)
			if err != nil {
				return Value{kind: Date}
			}
			return Time(t)
		case Text:
			t, ok := ParseDate(v.str)
			if !ok {
				return Value{kind: Date}
			}
			return Time(t)
		}
	}
	return Value{kind: k}
}
