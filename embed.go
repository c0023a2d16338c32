// Copyright © 2024 The Expreva authors

package expreva

import "fmt"

// GoValue converts v into a plain Go value: nil, bool, float64, string,
// []interface{}, or map[string]interface{}.  Callables, environment handles,
// and errors convert to themselves so hosts can inspect them directly.
func GoValue(v *Val) interface{} {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case KNil:
		return nil
	case KBool:
		return v.Bool
	case KNumber:
		return v.Num
	case KString, KSymbol:
		return v.Str
	case KList:
		out := make([]interface{}, len(v.Cells))
		for i, cell := range v.Cells {
			out[i] = GoValue(cell)
		}
		return out
	case KObject:
		out := make(map[string]interface{}, v.Obj.Len())
		for _, k := range v.Obj.Keys() {
			item, _ := v.Obj.Get(k)
			out[k] = GoValue(item)
		}
		return out
	default:
		return v
	}
}

// GoVal converts a plain Go value into an expreva value.  Unsupported types
// produce a KError value.
func GoVal(v interface{}) *Val {
	switch v := v.(type) {
	case nil:
		return Nil()
	case *Val:
		return v
	case bool:
		return Bool(v)
	case int:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case uint:
		return Number(float64(v))
	case float32:
		return Number(float64(v))
	case float64:
		return Number(v)
	case string:
		return String(v)
	case error:
		return Error(v)
	case []interface{}:
		cells := make([]*Val, len(v))
		for i, item := range v {
			cells[i] = GoVal(item)
		}
		return List(cells...)
	case map[string]interface{}:
		obj := Object()
		for k, item := range v {
			obj.Obj.Set(k, GoVal(item))
		}
		return obj
	case HostFun:
		return Fun("", v)
	case func(env *Env, args []*Val) *Val:
		return Fun("", v)
	default:
		return Errorf("cannot convert %T to an expreva value", v)
	}
}

// Bind is a convenience for building host binding tables.
func Bind(name string, fn HostFun) (string, *Val) {
	return name, Fun(name, fn)
}

// Bindings builds a binding map from alternating name, value pairs.  It
// panics on malformed input since binding tables are built from literals at
// program start.
func Bindings(pairs ...interface{}) map[string]*Val {
	if len(pairs)%2 != 0 {
		panic("odd number of binding arguments")
	}
	m := make(map[string]*Val, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("binding name is not a string: %v", pairs[i]))
		}
		m[name] = GoVal(pairs[i+1])
	}
	return m
}
