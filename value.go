// Copyright © 2024 The Expreva authors

package expreva

import (
	"fmt"

	"github.com/expreva/expreva/parser/token"
)

// Kind is the type tag of a Val.
type Kind uint

// Possible Kind values.
const (
	// KInvalid (0) is not a valid expreva value kind.
	KInvalid Kind = iota
	// KNumber values store a float64 in Val.Num.
	KNumber
	// KString values store a string in Val.Str.
	KString
	// KBool values store a bool in Val.Bool.
	KBool
	// KNil is the nil/undefined value produced by forms with no useful
	// result (empty do, comment, missing else branch).
	KNil
	// KSymbol values store an identifier in Val.Str.  Symbols evaluate by
	// environment lookup; at parse time they double as AST node heads.
	KSymbol
	// KList values store an ordered sequence in Val.Cells.  Lists are both
	// runtime sequences and AST nodes (the language is homoiconic).
	KList
	// KObject values store an insertion-ordered string-keyed mapping in
	// Val.Obj.
	KObject
	// KFun values store a callable in Val.Fun: either a host function or a
	// lambda closing over its defining scope.
	KFun
	// KEnv values hold an environment handle in Val.Env.  They are produced
	// by the local and global atoms and are indexable through get.
	KEnv
	// KError values represent evaluation errors.  The condition name is
	// stored in Val.Str and message/data values in Val.Cells.
	KError

	kindMax
)

var kindStrings = []string{
	KInvalid: "invalid",
	KNumber:  "number",
	KString:  "string",
	KBool:    "boolean",
	KNil:     "nil",
	KSymbol:  "symbol",
	KList:    "list",
	KObject:  "object",
	KFun:     "function",
	KEnv:     "environment",
	KError:   "error",
}

func (k Kind) String() string {
	if k >= kindMax {
		return kindStrings[KInvalid]
	}
	return kindStrings[k]
}

// HostFun is an opaque host callable.  It receives fully evaluated arguments
// and returns a value (possibly a KError value).
type HostFun func(env *Env, args []*Val) *Val

// FunData carries the callable payload of a KFun value.
type FunData struct {
	// Builtin is non-nil for host functions.
	Builtin HostFun
	// Args and Body describe a lambda.  Args is the formal argument list
	// exactly as parsed; Body is the unevaluated body expression.
	Args *Val
	Body *Val
	// Scope is the lambda's defining environment, captured by reference.
	Scope *Env
	// IsMacro marks callables invoked on unevaluated arguments whose result
	// replaces the call site.
	IsMacro bool
	// Name is the symbol the callable was most recently bound to, used only
	// for display and error messages.
	Name string
}

// Val is an expreva value.  AST nodes produced by the parser are values too:
// a list whose head is a symbol (or a callable-producing list).
type Val struct {
	Kind Kind

	// Num is used by KNumber values.
	Num float64
	// Str is used by KString and KSymbol values, and holds the condition
	// name of KError values.
	Str string
	// Bool is used by KBool values.
	Bool bool

	// Cells is the backing storage of KList values and the message/data of
	// KError values.
	Cells []*Val

	// Obj is the backing storage of KObject values.
	Obj *ObjectData

	// Fun is the callable payload of KFun values.  On KError values it
	// records the host function the error originated in, when known.
	Fun *FunData

	// Env is the handle payload of KEnv values.
	Env *Env

	// Source is the value's originating location in source code.  Programs
	// should not modify the contents of Source as the reference may be
	// shared by multiple values.
	Source *token.Location
}

// Singleton values for nil, true, and false.  They are shared and immutable;
// code receiving them must not mutate any field.
var (
	singletonNil   = &Val{Kind: KNil, Source: nativeSource()}
	singletonTrue  = &Val{Kind: KBool, Bool: true, Source: nativeSource()}
	singletonFalse = &Val{Kind: KBool, Bool: false, Source: nativeSource()}
)

// Nil returns the nil value.
func Nil() *Val { return singletonNil }

// True returns the true value.
func True() *Val { return singletonTrue }

// False returns the false value.
func False() *Val { return singletonFalse }

// Bool returns a boolean value.
func Bool(b bool) *Val {
	if b {
		return singletonTrue
	}
	return singletonFalse
}

// Number returns a value representing the number x.
func Number(x float64) *Val {
	return &Val{Kind: KNumber, Num: x, Source: nativeSource()}
}

// String returns a value representing the string s.
func String(s string) *Val {
	return &Val{Kind: KString, Str: s, Source: nativeSource()}
}

// Symbol returns a value representing the symbol s.
func Symbol(s string) *Val {
	return &Val{Kind: KSymbol, Str: s, Source: nativeSource()}
}

// List returns a list value.  The provided cells are used as backing storage
// and are not copied.
func List(cells ...*Val) *Val {
	return &Val{Kind: KList, Cells: cells, Source: nativeSource()}
}

// Quote returns the AST (` v) which evaluates to v unchanged.
func Quote(v *Val) *Val {
	return List(Symbol(QuoteSymbol), v)
}

// Fun returns a host function value.
func Fun(name string, fn HostFun) *Val {
	return &Val{
		Kind:   KFun,
		Fun:    &FunData{Builtin: fn, Name: name},
		Source: nativeSource(),
	}
}

// Lambda returns a lambda value closing over scope.  The args list and body
// are stored unevaluated.
func Lambda(args, body *Val, scope *Env) *Val {
	return &Val{
		Kind:   KFun,
		Fun:    &FunData{Args: args, Body: body, Scope: scope},
		Source: nativeSource(),
	}
}

// Object returns a new empty object value.
func Object() *Val {
	return &Val{Kind: KObject, Obj: newObjectData(), Source: nativeSource()}
}

// EnvHandle returns a value wrapping an environment handle.
func EnvHandle(env *Env) *Val {
	return &Val{Kind: KEnv, Env: env, Source: nativeSource()}
}

// Error returns a KError value wrapping err with the generic condition.
func Error(err error) *Val {
	return ErrorCondition(CondHostError, err)
}

// ErrorCondition returns a KError value with the given condition wrapping a
// Go error.
func ErrorCondition(condition string, err error) *Val {
	return &Val{
		Kind:   KError,
		Str:    condition,
		Cells:  []*Val{String(err.Error())},
		Source: nativeSource(),
	}
}

// Errorf returns a KError value with a formatted message and the generic
// condition.
func Errorf(format string, v ...interface{}) *Val {
	return ErrorConditionf(CondHostError, format, v...)
}

// ErrorConditionf returns a KError value with the given condition and a
// formatted message.
func ErrorConditionf(condition string, format string, v ...interface{}) *Val {
	return &Val{
		Kind:   KError,
		Str:    condition,
		Cells:  []*Val{String(fmt.Sprintf(format, v...))},
		Source: nativeSource(),
	}
}

// IsNil returns true if v is the nil value.
func (v *Val) IsNil() bool {
	return v.Kind == KNil
}

// IsError returns true if v is an error value.
func (v *Val) IsError() bool {
	return v.Kind == KError
}

// IsMacro returns true if v is a callable flagged as a macro.
func (v *Val) IsMacro() bool {
	return v.Kind == KFun && v.Fun.IsMacro
}

// IsSymbol returns true if v is the symbol named s.
func (v *Val) IsSymbol(s string) bool {
	return v.Kind == KSymbol && v.Str == s
}

// HeadSymbol returns the head symbol of a list AST node, or "" when v is not
// a list or its head is not a symbol.
func (v *Val) HeadSymbol() string {
	if v.Kind != KList || len(v.Cells) == 0 {
		return ""
	}
	if head := v.Cells[0]; head.Kind == KSymbol {
		return head.Str
	}
	return ""
}

// Len returns the length of a list, object, or string, and -1 for any other
// kind.
func (v *Val) Len() int {
	switch v.Kind {
	case KList:
		return len(v.Cells)
	case KObject:
		return v.Obj.Len()
	case KString:
		return len(v.Str)
	default:
		return -1
	}
}

// Truthy reports how conditionals interpret v: nil and false are falsey,
// zero and the empty string are falsey, everything else is truthy.
func (v *Val) Truthy() bool {
	switch v.Kind {
	case KNil:
		return false
	case KBool:
		return v.Bool
	case KNumber:
		return v.Num != 0
	case KString:
		return v.Str != ""
	default:
		return true
	}
}

// Equal returns true if v and other are structurally equal.
func (v *Val) Equal(other *Val) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KNil:
		return true
	case KNumber:
		return v.Num == other.Num
	case KBool:
		return v.Bool == other.Bool
	case KString, KSymbol:
		return v.Str == other.Str
	case KList:
		if len(v.Cells) != len(other.Cells) {
			return false
		}
		for i := range v.Cells {
			if !v.Cells[i].Equal(other.Cells[i]) {
				return false
			}
		}
		return true
	case KObject:
		if v.Obj.Len() != other.Obj.Len() {
			return false
		}
		for _, k := range v.Obj.Keys() {
			w, ok := other.Obj.Get(k)
			if !ok {
				return false
			}
			u, _ := v.Obj.Get(k)
			if !u.Equal(w) {
				return false
			}
		}
		return true
	case KFun:
		return v.Fun == other.Fun
	default:
		return false
	}
}

// Copy creates a deep copy of the receiver.  Function values share their
// FunData; everything else is copied structurally.
func (v *Val) Copy() *Val {
	if v == nil {
		return nil
	}
	cp := &Val{}
	*cp = *v
	if len(v.Cells) > 0 {
		cp.Cells = make([]*Val, len(v.Cells))
		for i := range v.Cells {
			cp.Cells[i] = v.Cells[i].Copy()
		}
	}
	if v.Obj != nil {
		cp.Obj = v.Obj.Copy()
	}
	return cp
}

// ObjectData is the insertion-ordered backing store for KObject values.
type ObjectData struct {
	keys  []string
	items map[string]*Val
}

func newObjectData() *ObjectData {
	return &ObjectData{items: make(map[string]*Val)}
}

// Len returns the number of entries.
func (o *ObjectData) Len() int { return len(o.keys) }

// Get returns the value bound to key.
func (o *ObjectData) Get(key string) (*Val, bool) {
	v, ok := o.items[key]
	return v, ok
}

// Set binds key to val, preserving the key's original insertion position if
// it already exists.
func (o *ObjectData) Set(key string, val *Val) {
	if _, ok := o.items[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.items[key] = val
}

// Delete removes key, preserving the order of the remaining keys.
func (o *ObjectData) Delete(key string) {
	if _, ok := o.items[key]; !ok {
		return
	}
	delete(o.items, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.  The returned slice is shared;
// callers must not modify it.
func (o *ObjectData) Keys() []string { return o.keys }

// Copy returns a structural copy of the object data.
func (o *ObjectData) Copy() *ObjectData {
	cp := &ObjectData{
		keys:  append([]string(nil), o.keys...),
		items: make(map[string]*Val, len(o.items)),
	}
	for k, v := range o.items {
		cp.items[k] = v.Copy()
	}
	return cp
}

var defaultSourceLocation = &token.Location{
	File: "<native code>",
	Pos:  -1,
}

func nativeSource() *token.Location {
	return defaultSourceLocation
}
