// basic_eval.go - expression evaluation, variables and arrays

package main

import (
	"strconv"
	"strings"
)

// basicArray holds either a numeric or a string array. Dimensions store the
// inclusive upper bounds; element count per axis is bound+1.
type basicArray struct {
	IsStr  bool
	Dims   []int
	MaxLen int
	Nums   []int
	Strs   []string
}

func newBasicArray(name string, dims []int, maxLen int) *basicArray {
	size := 1
	for _, d := range dims {
		size *= d + 1
	}
	arr := &basicArray{
		IsStr:  strings.HasSuffix(name, "$"),
		Dims:   append([]int(nil), dims...),
		MaxLen: maxLen,
	}
	if arr.IsStr {
		arr.Strs = make([]string, size)
	} else {
		arr.Nums = make([]int, size)
	}
	return arr
}

func (a *basicArray) offset(subs []int) (int, *BasicError) {
	if len(subs) != len(a.Dims) {
		return 0, basicErrf(errBadVar, "BAD SUBSCRIPT COUNT")
	}
	off := 0
	for i, s := range subs {
		if s < 0 || s > a.Dims[i] {
			return 0, basicErrf(errBadVar, "SUBSCRIPT OUT OF RANGE")
		}
		off = off*(a.Dims[i]+1) + s
	}
	return off, nil
}

func (a *basicArray) get(subs []int) (basicValue, *BasicError) {
	off, err := a.offset(subs)
	if err != nil {
		return basicValue{}, err
	}
	if a.IsStr {
		return strValue(a.Strs[off]), nil
	}
	return numValue(a.Nums[off]), nil
}

func (a *basicArray) set(subs []int, value basicValue) *BasicError {
	off, err := a.offset(subs)
	if err != nil {
		return err
	}
	if a.IsStr {
		s := value.Str
		if a.MaxLen > 0 && len(s) > a.MaxLen {
			s = s[:a.MaxLen]
		}
		a.Strs[off] = s
		return nil
	}
	a.Nums[off] = value.Num
	return nil
}

func (rt *BasicRuntime) evalExpr(e Expr) (basicValue, *BasicError) {
	switch n := e.(type) {
	case *ExprNumber:
		return numValue(n.Value), nil
	case *ExprString:
		return strValue(n.Value), nil
	case *ExprVar:
		if n.Name == "INKEY$" {
			return rt.evalFunction(n.Name, nil)
		}
		return rt.getVar(n.Name), nil
	case *ExprIndex:
		return rt.evalIndex(n.Name, n.Subs)
	case *ExprCall:
		if _, ok := rt.arrays[n.Name]; ok {
			return rt.evalIndex(n.Name, n.Args)
		}
		return rt.evalFunction(n.Name, n.Args)
	case *ExprUnary:
		return rt.evalUnary(n)
	case *ExprBinary:
		return rt.evalBinary(n)
	}
	return basicValue{}, basicErrf(errUnknown, "BAD EXPRESSION")
}

func (rt *BasicRuntime) evalInt(e Expr) (int, *BasicError) {
	v, err := rt.evalExpr(e)
	if err != nil {
		return 0, err
	}
	if v.IsStr {
		return 0, basicErrf(errSyntax, "TYPE MISMATCH")
	}
	return v.Num, nil
}

func (rt *BasicRuntime) evalString(e Expr) (string, *BasicError) {
	v, err := rt.evalExpr(e)
	if err != nil {
		return "", err
	}
	if !v.IsStr {
		return "", basicErrf(errSyntax, "TYPE MISMATCH")
	}
	return v.Str, nil
}

func (rt *BasicRuntime) evalIndex(name string, subs []Expr) (basicValue, *BasicError) {
	arr, ok := rt.arrays[name]
	if !ok {
		return basicValue{}, basicErrf(errBadVar, "UNDIMENSIONED %s", name)
	}
	idx, err := rt.evalSubs(subs)
	if err != nil {
		return basicValue{}, err
	}
	return arr.get(idx)
}

func (rt *BasicRuntime) evalSubs(subs []Expr) ([]int, *BasicError) {
	out := make([]int, len(subs))
	for i, s := range subs {
		v, err := rt.evalInt(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (rt *BasicRuntime) getVar(name string) basicValue {
	if v, ok := rt.vars[name]; ok {
		return v
	}
	if strings.HasSuffix(name, "$") {
		return strValue("")
	}
	return numValue(0)
}

// setVar enforces name typing: names ending in $ hold strings, everything
// else integers.
func (rt *BasicRuntime) setVar(name string, value basicValue) *BasicError {
	isStr := strings.HasSuffix(name, "$")
	if isStr != value.IsStr {
		return basicErrf(errBadLet, "TYPE MISMATCH")
	}
	rt.vars[name] = value
	return nil
}

func (rt *BasicRuntime) evalUnary(e *ExprUnary) (basicValue, *BasicError) {
	v, err := rt.evalExpr(e.E)
	if err != nil {
		return basicValue{}, err
	}
	if v.IsStr {
		return basicValue{}, basicErrf(errSyntax, "TYPE MISMATCH")
	}
	switch e.Op {
	case "+":
		return v, nil
	case "-":
		return numValue(-v.Num), nil
	case "NOT":
		return numValue(^v.Num), nil
	}
	return basicValue{}, basicErrf(errUnknown, "BAD OPERATOR %s", e.Op)
}

func boolNum(b bool) basicValue {
	if b {
		return numValue(-1)
	}
	return numValue(0)
}

func (rt *BasicRuntime) evalBinary(e *ExprBinary) (basicValue, *BasicError) {
	l, err := rt.evalExpr(e.L)
	if err != nil {
		return basicValue{}, err
	}
	r, err := rt.evalExpr(e.R)
	if err != nil {
		return basicValue{}, err
	}

	if l.IsStr || r.IsStr {
		if !l.IsStr || !r.IsStr {
			return basicValue{}, basicErrf(errSyntax, "TYPE MISMATCH")
		}
		switch e.Op {
		case "+":
			return strValue(l.Str + r.Str), nil
		case "=":
			return boolNum(l.Str == r.Str), nil
		case "<>":
			return boolNum(l.Str != r.Str), nil
		case "<":
			return boolNum(l.Str < r.Str), nil
		case "<=":
			return boolNum(l.Str <= r.Str), nil
		case ">":
			return boolNum(l.Str > r.Str), nil
		case ">=":
			return boolNum(l.Str >= r.Str), nil
		}
		return basicValue{}, basicErrf(errSyntax, "TYPE MISMATCH")
	}

	a, b := l.Num, r.Num
	switch e.Op {
	case "+":
		return numValue(a + b), nil
	case "-":
		return numValue(a - b), nil
	case "*":
		return numValue(a * b), nil
	case "/", "\\":
		if b == 0 {
			return basicValue{}, basicErrf(errUnknown, "DIVISION BY ZERO")
		}
		return numValue(a / b), nil
	case "MOD":
		if b == 0 {
			return basicValue{}, basicErrf(errUnknown, "DIVISION BY ZERO")
		}
		return numValue(a % b), nil
	case "^":
		return numValue(intPow(a, b)), nil
	case "=":
		return boolNum(a == b), nil
	case "<>":
		return boolNum(a != b), nil
	case "<":
		return boolNum(a < b), nil
	case "<=":
		return boolNum(a <= b), nil
	case ">":
		return boolNum(a > b), nil
	case ">=":
		return boolNum(a >= b), nil
	case "AND":
		return numValue(a & b), nil
	case "OR":
		return numValue(a | b), nil
	case "XOR":
		return numValue(a ^ b), nil
	}
	return basicValue{}, basicErrf(errUnknown, "BAD OPERATOR %s", e.Op)
}

func intPow(base, exp int) int {
	if exp < 0 {
		switch base {
		case 1:
			return 1
		case -1:
			if exp%2 == 0 {
				return 1
			}
			return -1
		}
		return 0
	}
	result := 1
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func (rt *BasicRuntime) evalFunction(name string, args []Expr) (basicValue, *BasicError) {
	argInt := func(i int) (int, *BasicError) {
		if i >= len(args) {
			return 0, basicErrf(errSyntax, "MISSING ARGUMENT")
		}
		return rt.evalInt(args[i])
	}
	argStr := func(i int) (string, *BasicError) {
		if i >= len(args) {
			return "", basicErrf(errSyntax, "MISSING ARGUMENT")
		}
		return rt.evalString(args[i])
	}

	switch name {
	case "INP":
		port, err := argInt(0)
		if err != nil {
			return basicValue{}, err
		}
		if rt.adapter == nil {
			return numValue(0xFF), nil
		}
		return numValue(int(rt.adapter.In8(uint16(port)))), nil
	case "PEEK":
		addr, err := argInt(0)
		if err != nil {
			return basicValue{}, err
		}
		if rt.adapter == nil {
			return numValue(0), nil
		}
		return numValue(int(rt.adapter.Peek8(uint16(addr)))), nil
	case "ABS":
		v, err := argInt(0)
		if err != nil {
			return basicValue{}, err
		}
		if v < 0 {
			v = -v
		}
		return numValue(v), nil
	case "SGN":
		v, err := argInt(0)
		if err != nil {
			return basicValue{}, err
		}
		switch {
		case v > 0:
			return numValue(1), nil
		case v < 0:
			return numValue(-1), nil
		}
		return numValue(0), nil
	case "LEN":
		s, err := argStr(0)
		if err != nil {
			return basicValue{}, err
		}
		return numValue(len(s)), nil
	case "ASC":
		s, err := argStr(0)
		if err != nil {
			return basicValue{}, err
		}
		if len(s) == 0 {
			return numValue(0), nil
		}
		return numValue(int(s[0])), nil
	case "CHR$":
		v, err := argInt(0)
		if err != nil {
			return basicValue{}, err
		}
		return strValue(string(rune(byte(v)))), nil
	case "VAL":
		s, err := argStr(0)
		if err != nil {
			return basicValue{}, err
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(s))
		if convErr != nil {
			return numValue(0), nil
		}
		return numValue(n), nil
	case "STR$":
		v, err := argInt(0)
		if err != nil {
			return basicValue{}, err
		}
		return strValue(strconv.Itoa(v)), nil
	case "MID$":
		s, err := argStr(0)
		if err != nil {
			return basicValue{}, err
		}
		start, err := argInt(1)
		if err != nil {
			return basicValue{}, err
		}
		length := len(s)
		if len(args) > 2 {
			if length, err = argInt(2); err != nil {
				return basicValue{}, err
			}
		}
		return strValue(substr(s, start-1, length)), nil
	case "LEFT$":
		s, err := argStr(0)
		if err != nil {
			return basicValue{}, err
		}
		n, err := argInt(1)
		if err != nil {
			return basicValue{}, err
		}
		return strValue(substr(s, 0, n)), nil
	case "RIGHT$":
		s, err := argStr(0)
		if err != nil {
			return basicValue{}, err
		}
		n, err := argInt(1)
		if err != nil {
			return basicValue{}, err
		}
		if n > len(s) {
			n = len(s)
		}
		return strValue(s[len(s)-n:]), nil
	case "INKEY$":
		if rt.adapter == nil {
			return strValue(""), nil
		}
		if ch, ok := rt.adapter.ReadInkey(); ok {
			return strValue(string(rune(ch))), nil
		}
		return strValue(""), nil
	}
	return basicValue{}, basicErrf(errBadVar, "UNDIMENSIONED %s", name)
}

func substr(s string, start, length int) string {
	if start < 0 {
		start = 0
	}
	if start >= len(s) || length <= 0 {
		return ""
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}
