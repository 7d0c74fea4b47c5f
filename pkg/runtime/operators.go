package runtime

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// IsTruthy converts a value to boolean the way `if` does
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case Boolean:
		return bool(v)
	case Number:
		f := float64(v)
		return f != 0 && !math.IsNaN(f)
	case String:
		return len(v) > 0
	case *Function, *Object:
		return true
	}
	return false
}

var (
	decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	hexLiteral     = regexp.MustCompile(`^0[xX][0-9a-fA-F]+$`)
)

func coerceToNumber(v Value) float64 {
	switch v := v.(type) {
	case Number:
		return float64(v)
	case Boolean:
		if v {
			return 1
		}
		return 0
	case String:
		s := strings.TrimSpace(string(v))
		switch s {
		case "":
			return 0
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		if hexLiteral.MatchString(s) {
			if i, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
				return float64(i)
			}
			return math.NaN()
		}
		if !decimalLiteral.MatchString(s) {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	if v == Null {
		return 0
	}
	return math.NaN()
}

func isPrimitive(v Value) bool {
	switch v.(type) {
	case *Function, *Object:
		return false
	}
	return true
}

func strictEquals(l, r Value) bool {
	if l.Type() != r.Type() {
		return false
	}
	switch lv := l.(type) {
	case Number:
		return float64(lv) == float64(r.(Number))
	case String, Boolean:
		return l == r
	case *Function:
		return lv == r.(*Function)
	case *Object:
		return lv == r.(*Object)
	}
	return true
}

func looseEquals(l, r Value) bool {
	if l.Type() == r.Type() {
		return strictEquals(l, r)
	}
	nullish := func(v Value) bool { return v == Null || v == Undefined }
	if nullish(l) || nullish(r) {
		return nullish(l) && nullish(r)
	}
	if !isPrimitive(l) || !isPrimitive(r) {
		if isPrimitive(l) {
			return looseEquals(l, String(r.String()))
		}
		if isPrimitive(r) {
			return looseEquals(String(l.String()), r)
		}
		return false
	}
	return coerceToNumber(l) == coerceToNumber(r)
}

func compare(op string, l, r Value) bool {
	if ls, ok := l.(String); ok {
		if rs, ok := r.(String); ok {
			switch op {
			case "<":
				return ls < rs
			case "<=":
				return ls <= rs
			case ">":
				return ls > rs
			case ">=":
				return ls >= rs
			}
		}
	}
	lf, rf := coerceToNumber(l), coerceToNumber(r)
	if math.IsNaN(lf) || math.IsNaN(rf) {
		return false
	}
	switch op {
	case "<":
		return lf < rf
	case "<=":
		return lf <= rf
	case ">":
		return lf > rf
	case ">=":
		return lf >= rf
	}
	return false
}

// binaryOp applies a non short-circuit operator. ok is false for an
// unknown operator.
func binaryOp(op string, l, r Value) (Value, bool) {
	switch op {
	case "+":
		_, ls := l.(String)
		_, rs := r.(String)
		if ls || rs || !isPrimitive(l) || !isPrimitive(r) {
			return String(l.String() + r.String()), true
		}
		return Number(coerceToNumber(l) + coerceToNumber(r)), true
	case "-":
		return Number(coerceToNumber(l) - coerceToNumber(r)), true
	case "*":
		return Number(coerceToNumber(l) * coerceToNumber(r)), true
	case "/":
		return Number(coerceToNumber(l) / coerceToNumber(r)), true
	case "%":
		return Number(math.Mod(coerceToNumber(l), coerceToNumber(r))), true
	case "**":
		return Number(math.Pow(coerceToNumber(l), coerceToNumber(r))), true
	case "==":
		return Boolean(looseEquals(l, r)), true
	case "!=":
		return Boolean(!looseEquals(l, r)), true
	case "===":
		return Boolean(strictEquals(l, r)), true
	case "!==":
		return Boolean(!strictEquals(l, r)), true
	case "<", "<=", ">", ">=":
		return Boolean(compare(op, l, r)), true
	}
	return nil, false
}

func unaryOp(op string, v Value) (Value, bool) {
	switch op {
	case "!":
		return Boolean(!IsTruthy(v)), true
	case "-":
		return Number(-coerceToNumber(v)), true
	case "+":
		return Number(coerceToNumber(v)), true
	case "typeof":
		return String(TypeOf(v)), true
	}
	return nil, false
}
