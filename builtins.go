// Copyright © 2024 The Expreva authors

package expreva

import (
	"math"
	"strings"
)

// langBuiltin couples a host function with the name it is registered under.
type langBuiltin struct {
	name string
	fn   HostFun
	doc  string
}

var langBuiltins []*langBuiltin

// The table is populated in init: several builtins (map, filter, reduce)
// call back into the evaluator, which reaches StandardBindings when it
// builds a root environment, so a composite literal would form an
// initialization cycle.
func init() {
	langBuiltins = []*langBuiltin{
		{"+", builtinAdd, "Sum numbers, or concatenate strings and lists."},
		{"-", builtinSub, "Subtract, or negate a single argument."},
		{"*", builtinMul, "Multiply numbers."},
		{"/", builtinDiv, "Divide numbers."},
		{"%", builtinMod, "Floating point remainder."},
		{"^", builtinPow, "Raise to a power."},
		{"!", builtinNot, "Logical negation."},
		{"factorial", builtinFactorial, "Factorial of a non-negative integer."},
		{"==", builtinEq, "Structural equality."},
		{"!=", builtinNe, "Structural inequality."},
		{"<", builtinLt, "Less than."},
		{"<=", builtinLe, "Less than or equal."},
		{">", builtinGt, "Greater than."},
		{">=", builtinGe, "Greater than or equal."},
		{"&&", builtinAnd, "True when every argument is truthy."},
		{"||", builtinOr, "First truthy argument, or the last argument."},
		{"set", builtinSet, "Set a key on an object, list, or environment."},
		{"get", builtinGet, "Look up a key on an object, list, string, or environment."},
		{"unset", builtinUnset, "Remove a key from an object or environment."},
		{"use", builtinUse, "Import an object's entries as bindings."},
		{"push", builtinPush, "Append values to a list."},
		{"pop", builtinPop, "Remove and return the last element of a list."},
		{"insert", builtinInsert, "Insert a value into a list at an index."},
		{"slice", builtinSlice, "Slice a list or string."},
		{"search", builtinSearch, "Index of a value in a list or substring in a string."},
		{"in", builtinIn, "Membership test for lists, objects, and strings."},
		{"keys", builtinKeys, "Keys of an object, or indices of a list."},
		{"values", builtinValues, "Values of an object."},
		{"size", builtinSize, "Number of elements or characters."},
		{"join", builtinJoin, "Join list elements into a string."},
		{"split", builtinSplit, "Split a string around a separator."},
		{"map", builtinMap, "Apply a function to each element of a list."},
		{"filter", builtinFilter, "Keep elements for which a function is truthy."},
		{"reduce", builtinReduce, "Fold a list with a function and initial value."},
		{"repeat", builtinRepeat, "Repeat a string, list, or function application."},
		{"char", builtinChar, "Convert between a character and its code point."},
		{"print", builtinPrint, "Write values to the runtime's error stream."},
		{"to_string", builtinToString, "Render a value as a string."},
		{"type", builtinType, "Name of a value's type."},
		{"throw", builtinThrow, "Signal an evaluation error."},
	}
}

// StandardBindings returns the root environment's initial contents: the
// builtin function table plus the true, false, and nil constants.
func StandardBindings() map[string]*Val {
	m := make(map[string]*Val, len(langBuiltins)+3)
	for _, b := range langBuiltins {
		m[b.name] = Fun(b.name, b.fn)
	}
	m["true"] = True()
	m["false"] = False()
	m["nil"] = Nil()
	return m
}

func numArg(env *Env, args []*Val, i int) (float64, *Val) {
	if i >= len(args) {
		return 0, env.Errorf("expected at least %d arguments, got %d", i+1, len(args))
	}
	if args[i].Kind != KNumber {
		return 0, env.Errorf("argument %d is not a number: %s", i+1, PrintValue(args[i]))
	}
	return args[i].Num, nil
}

func builtinAdd(env *Env, args []*Val) *Val {
	if len(args) == 0 {
		return Number(0)
	}
	switch args[0].Kind {
	case KString:
		var buf strings.Builder
		for _, a := range args {
			if a.Kind == KString {
				buf.WriteString(a.Str)
			} else {
				buf.WriteString(PrintValue(a))
			}
		}
		return String(buf.String())
	case KList:
		cells := append([]*Val{}, args[0].Cells...)
		for _, a := range args[1:] {
			if a.Kind == KList {
				cells = append(cells, a.Cells...)
			} else {
				cells = append(cells, a)
			}
		}
		return List(cells...)
	}
	sum := 0.0
	for i := range args {
		x, lerr := numArg(env, args, i)
		if lerr != nil {
			return lerr
		}
		sum += x
	}
	return Number(sum)
}

func builtinSub(env *Env, args []*Val) *Val {
	x, lerr := numArg(env, args, 0)
	if lerr != nil {
		return lerr
	}
	if len(args) == 1 {
		return Number(-x)
	}
	for i := 1; i < len(args); i++ {
		y, lerr := numArg(env, args, i)
		if lerr != nil {
			return lerr
		}
		x -= y
	}
	return Number(x)
}

func builtinMul(env *Env, args []*Val) *Val {
	prod := 1.0
	for i := range args {
		x, lerr := numArg(env, args, i)
		if lerr != nil {
			return lerr
		}
		prod *= x
	}
	return Number(prod)
}

func builtinDiv(env *Env, args []*Val) *Val {
	x, lerr := numArg(env, args, 0)
	if lerr != nil {
		return lerr
	}
	if len(args) == 1 {
		return Number(1 / x)
	}
	for i := 1; i < len(args); i++ {
		y, lerr := numArg(env, args, i)
		if lerr != nil {
			return lerr
		}
		x /= y
	}
	return Number(x)
}

func builtinMod(env *Env, args []*Val) *Val {
	x, lerr := numArg(env, args, 0)
	if lerr != nil {
		return lerr
	}
	y, lerr := numArg(env, args, 1)
	if lerr != nil {
		return lerr
	}
	return Number(math.Mod(x, y))
}

func builtinPow(env *Env, args []*Val) *Val {
	x, lerr := numArg(env, args, 0)
	if lerr != nil {
		return lerr
	}
	y, lerr := numArg(env, args, 1)
	if lerr != nil {
		return lerr
	}
	return Number(math.Pow(x, y))
}

func builtinNot(env *Env, args []*Val) *Val {
	if len(args) < 1 {
		return env.Errorf("expected 1 argument")
	}
	return Bool(!args[0].Truthy())
}

func builtinFactorial(env *Env, args []*Val) *Val {
	x, lerr := numArg(env, args, 0)
	if lerr != nil {
		return lerr
	}
	if x < 0 || x != math.Trunc(x) {
		return env.Errorf("factorial requires a non-negative integer, got %s", formatNumber(x))
	}
	out := 1.0
	for i := 2.0; i <= x; i++ {
		out *= i
	}
	return Number(out)
}

func builtinEq(env *Env, args []*Val) *Val {
	if len(args) < 2 {
		return env.Errorf("expected 2 arguments, got %d", len(args))
	}
	for i := 1; i < len(args); i++ {
		if !args[0].Equal(args[i]) {
			return False()
		}
	}
	return True()
}

func builtinNe(env *Env, args []*Val) *Val {
	v := builtinEq(env, args)
	if v.IsError() {
		return v
	}
	return Bool(!v.Bool)
}

func compare(env *Env, args []*Val) (int, *Val) {
	if len(args) < 2 {
		return 0, env.Errorf("expected 2 arguments, got %d", len(args))
	}
	a, b := args[0], args[1]
	if a.Kind == KString && b.Kind == KString {
		return strings.Compare(a.Str, b.Str), nil
	}
	x, lerr := numArg(env, args, 0)
	if lerr != nil {
		return 0, lerr
	}
	y, lerr := numArg(env, args, 1)
	if lerr != nil {
		return 0, lerr
	}
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	}
	return 0, nil
}

func builtinLt(env *Env, args []*Val) *Val {
	c, lerr := compare(env, args)
	if lerr != nil {
		return lerr
	}
	return Bool(c < 0)
}

func builtinLe(env *Env, args []*Val) *Val {
	c, lerr := compare(env, args)
	if lerr != nil {
		return lerr
	}
	return Bool(c <= 0)
}

func builtinGt(env *Env, args []*Val) *Val {
	c, lerr := compare(env, args)
	if lerr != nil {
		return lerr
	}
	return Bool(c > 0)
}

func builtinGe(env *Env, args []*Val) *Val {
	c, lerr := compare(env, args)
	if lerr != nil {
		return lerr
	}
	return Bool(c >= 0)
}

func builtinAnd(env *Env, args []*Val) *Val {
	for _, a := range args {
		if !a.Truthy() {
			return False()
		}
	}
	return True()
}

func builtinOr(env *Env, args []*Val) *Val {
	for _, a := range args {
		if a.Truthy() {
			return a
		}
	}
	if len(args) == 0 {
		return False()
	}
	return args[len(args)-1]
}

func builtinSet(env *Env, args []*Val) *Val {
	switch len(args) {
	case 2:
		if args[0].Kind != KString && args[0].Kind != KSymbol {
			return env.Errorf("binding name must be a string, got %s", args[0].Kind)
		}
		env.PutGlobal(args[0].Str, args[1])
		return args[1]
	case 3:
		member := List(Symbol(symDef), Quote(args[1]), Quote(args[2]))
		return evalMemberSet(args[0], member, env)
	default:
		return env.Errorf("expected 2 or 3 arguments, got %d", len(args))
	}
}

func builtinGet(env *Env, args []*Val) *Val {
	if len(args) < 2 {
		return env.Errorf("expected 2 arguments, got %d", len(args))
	}
	base := args[0]
	for _, key := range args[1:] {
		next, lerr := index(base, key, env)
		if lerr != nil {
			return lerr
		}
		base = next
	}
	return base
}

func builtinUnset(env *Env, args []*Val) *Val {
	if len(args) < 2 {
		return env.Errorf("expected 2 arguments, got %d", len(args))
	}
	base, key := args[0], args[1]
	switch base.Kind {
	case KObject:
		base.Obj.Delete(keyString(key))
	case KEnv:
		delete(base.Env.Scope, keyString(key))
	default:
		return env.ErrorConditionf(CondNotIndexable, "cannot unset a key on %s value", base.Kind)
	}
	return base
}

func builtinUse(env *Env, args []*Val) *Val {
	if len(args) < 1 || args[0].Kind != KObject {
		return env.Errorf("expected an object argument")
	}
	obj := args[0].Obj
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		env.PutGlobal(k, v)
	}
	return Nil()
}

func builtinPush(env *Env, args []*Val) *Val {
	if len(args) < 1 || args[0].Kind != KList {
		return env.Errorf("expected a list argument")
	}
	args[0].Cells = append(args[0].Cells, args[1:]...)
	return args[0]
}

func builtinPop(env *Env, args []*Val) *Val {
	if len(args) < 1 || args[0].Kind != KList {
		return env.Errorf("expected a list argument")
	}
	cells := args[0].Cells
	if len(cells) == 0 {
		return Nil()
	}
	last := cells[len(cells)-1]
	args[0].Cells = cells[:len(cells)-1]
	return last
}

func builtinInsert(env *Env, args []*Val) *Val {
	if len(args) < 3 || args[0].Kind != KList {
		return env.Errorf("expected a list, an index, and a value")
	}
	i, lerr := numArg(env, args, 1)
	if lerr != nil {
		return lerr
	}
	list := args[0]
	n := int(i)
	if n < 0 {
		n = 0
	}
	if n > len(list.Cells) {
		n = len(list.Cells)
	}
	cells := make([]*Val, 0, len(list.Cells)+1)
	cells = append(cells, list.Cells[:n]...)
	cells = append(cells, args[2])
	cells = append(cells, list.Cells[n:]...)
	list.Cells = cells
	return list
}

func builtinSlice(env *Env, args []*Val) *Val {
	if len(args) < 2 {
		return env.Errorf("expected at least 2 arguments, got %d", len(args))
	}
	start, lerr := numArg(env, args, 1)
	if lerr != nil {
		return lerr
	}
	base := args[0]
	length := 0
	switch base.Kind {
	case KList:
		length = len(base.Cells)
	case KString:
		length = len([]rune(base.Str))
	default:
		return env.ErrorConditionf(CondNotIndexable, "cannot slice %s value", base.Kind)
	}
	end := float64(length)
	if len(args) > 2 {
		end, lerr = numArg(env, args, 2)
		if lerr != nil {
			return lerr
		}
	}
	lo, hi := clampRange(int(start), int(end), length)
	if base.Kind == KString {
		return String(string([]rune(base.Str)[lo:hi]))
	}
	return List(append([]*Val{}, base.Cells[lo:hi]...)...)
}

func clampRange(lo, hi, length int) (int, int) {
	if lo < 0 {
		lo += length
	}
	if hi < 0 {
		hi += length
	}
	if lo < 0 {
		lo = 0
	}
	if hi > length {
		hi = length
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func builtinSearch(env *Env, args []*Val) *Val {
	if len(args) < 2 {
		return env.Errorf("expected 2 arguments, got %d", len(args))
	}
	base, item := args[0], args[1]
	switch base.Kind {
	case KList:
		for i, cell := range base.Cells {
			if cell.Equal(item) {
				return Number(float64(i))
			}
		}
		return Number(-1)
	case KString:
		if item.Kind != KString {
			return Number(-1)
		}
		return Number(float64(strings.Index(base.Str, item.Str)))
	case KObject:
		for _, k := range base.Obj.Keys() {
			v, _ := base.Obj.Get(k)
			if v.Equal(item) {
				return String(k)
			}
		}
		return Nil()
	default:
		return env.ErrorConditionf(CondNotIndexable, "cannot search %s value", base.Kind)
	}
}

func builtinIn(env *Env, args []*Val) *Val {
	if len(args) < 2 {
		return env.Errorf("expected 2 arguments, got %d", len(args))
	}
	item, base := args[0], args[1]
	switch base.Kind {
	case KList:
		for _, cell := range base.Cells {
			if cell.Equal(item) {
				return True()
			}
		}
		return False()
	case KObject:
		_, ok := base.Obj.Get(keyString(item))
		return Bool(ok)
	case KString:
		return Bool(item.Kind == KString && strings.Contains(base.Str, item.Str))
	default:
		return env.ErrorConditionf(CondNotIndexable, "cannot search %s value", base.Kind)
	}
}

func builtinKeys(env *Env, args []*Val) *Val {
	if len(args) < 1 {
		return env.Errorf("expected 1 argument")
	}
	switch base := args[0]; base.Kind {
	case KObject:
		cells := make([]*Val, len(base.Obj.Keys()))
		for i, k := range base.Obj.Keys() {
			cells[i] = String(k)
		}
		return List(cells...)
	case KList:
		cells := make([]*Val, len(base.Cells))
		for i := range base.Cells {
			cells[i] = Number(float64(i))
		}
		return List(cells...)
	default:
		return env.ErrorConditionf(CondNotIndexable, "cannot list keys of %s value", base.Kind)
	}
}

func builtinValues(env *Env, args []*Val) *Val {
	if len(args) < 1 {
		return env.Errorf("expected 1 argument")
	}
	switch base := args[0]; base.Kind {
	case KObject:
		cells := make([]*Val, 0, base.Obj.Len())
		for _, k := range base.Obj.Keys() {
			v, _ := base.Obj.Get(k)
			cells = append(cells, v)
		}
		return List(cells...)
	case KList:
		return base
	default:
		return env.ErrorConditionf(CondNotIndexable, "cannot list values of %s value", base.Kind)
	}
}

func builtinSize(env *Env, args []*Val) *Val {
	if len(args) < 1 {
		return env.Errorf("expected 1 argument")
	}
	switch base := args[0]; base.Kind {
	case KList:
		return Number(float64(len(base.Cells)))
	case KString:
		return Number(float64(len([]rune(base.Str))))
	case KObject:
		return Number(float64(base.Obj.Len()))
	case KNil:
		return Number(0)
	default:
		return env.Errorf("%s value has no size", base.Kind)
	}
}

func builtinJoin(env *Env, args []*Val) *Val {
	if len(args) < 1 || args[0].Kind != KList {
		return env.Errorf("expected a list argument")
	}
	sep := ""
	if len(args) > 1 && args[1].Kind == KString {
		sep = args[1].Str
	}
	parts := make([]string, len(args[0].Cells))
	for i, cell := range args[0].Cells {
		if cell.Kind == KString {
			parts[i] = cell.Str
		} else {
			parts[i] = PrintValue(cell)
		}
	}
	return String(strings.Join(parts, sep))
}

func builtinSplit(env *Env, args []*Val) *Val {
	if len(args) < 1 || args[0].Kind != KString {
		return env.Errorf("expected a string argument")
	}
	sep := ""
	if len(args) > 1 && args[1].Kind == KString {
		sep = args[1].Str
	}
	parts := strings.Split(args[0].Str, sep)
	cells := make([]*Val, len(parts))
	for i, p := range parts {
		cells[i] = String(p)
	}
	return List(cells...)
}

func builtinMap(env *Env, args []*Val) *Val {
	if len(args) < 2 || args[0].Kind != KList {
		return env.Errorf("expected a list and a function")
	}
	cells := make([]*Val, len(args[0].Cells))
	for i, cell := range args[0].Cells {
		v := env.funCall(args[1], []*Val{cell, Number(float64(i))})
		if v.IsError() {
			return v
		}
		cells[i] = v
	}
	return List(cells...)
}

func builtinFilter(env *Env, args []*Val) *Val {
	if len(args) < 2 || args[0].Kind != KList {
		return env.Errorf("expected a list and a function")
	}
	var cells []*Val
	for i, cell := range args[0].Cells {
		v := env.funCall(args[1], []*Val{cell, Number(float64(i))})
		if v.IsError() {
			return v
		}
		if v.Truthy() {
			cells = append(cells, cell)
		}
	}
	return List(cells...)
}

func builtinReduce(env *Env, args []*Val) *Val {
	if len(args) < 2 || args[0].Kind != KList {
		return env.Errorf("expected a list and a function")
	}
	acc := Nil()
	cells := args[0].Cells
	i := 0
	if len(args) > 2 {
		acc = args[2]
	} else if len(cells) > 0 {
		acc = cells[0]
		i = 1
	}
	for ; i < len(cells); i++ {
		v := env.funCall(args[1], []*Val{acc, cells[i], Number(float64(i))})
		if v.IsError() {
			return v
		}
		acc = v
	}
	return acc
}

func builtinRepeat(env *Env, args []*Val) *Val {
	if len(args) < 2 {
		return env.Errorf("expected 2 arguments, got %d", len(args))
	}
	n, lerr := numArg(env, args, 1)
	if lerr != nil {
		return lerr
	}
	count := int(n)
	if count < 0 {
		count = 0
	}
	switch base := args[0]; base.Kind {
	case KString:
		return String(strings.Repeat(base.Str, count))
	case KList:
		cells := make([]*Val, 0, len(base.Cells)*count)
		for i := 0; i < count; i++ {
			cells = append(cells, base.Cells...)
		}
		return List(cells...)
	case KFun:
		cells := make([]*Val, count)
		for i := 0; i < count; i++ {
			v := env.funCall(base, []*Val{Number(float64(i))})
			if v.IsError() {
				return v
			}
			cells[i] = v
		}
		return List(cells...)
	default:
		return env.Errorf("cannot repeat %s value", base.Kind)
	}
}

func builtinChar(env *Env, args []*Val) *Val {
	if len(args) < 1 {
		return env.Errorf("expected 1 argument")
	}
	switch base := args[0]; base.Kind {
	case KNumber:
		return String(string(rune(int(base.Num))))
	case KString:
		for _, r := range base.Str {
			return Number(float64(r))
		}
		return Nil()
	default:
		return env.Errorf("expected a number or string, got %s", base.Kind)
	}
}

func builtinPrint(env *Env, args []*Val) *Val {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Kind == KString {
			parts[i] = a.Str
		} else {
			parts[i] = PrintValue(a)
		}
	}
	if env.Runtime.Stderr != nil {
		if _, err := env.Runtime.Stderr.Write([]byte(strings.Join(parts, " ") + "\n")); err != nil {
			return env.Error(err)
		}
	}
	if len(args) == 0 {
		return Nil()
	}
	return args[len(args)-1]
}

func builtinToString(env *Env, args []*Val) *Val {
	if len(args) < 1 {
		return String("")
	}
	if args[0].Kind == KString {
		return args[0]
	}
	return String(PrintValue(args[0]))
}

func builtinType(env *Env, args []*Val) *Val {
	if len(args) < 1 {
		return String(KNil.String())
	}
	return String(args[0].Kind.String())
}

func builtinThrow(env *Env, args []*Val) *Val {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Kind == KString {
			parts[i] = a.Str
		} else {
			parts[i] = PrintValue(a)
		}
	}
	return env.Errorf("%s", strings.Join(parts, " "))
}
