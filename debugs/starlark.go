package debugs

import (
	"fmt"
	"reflect"

	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
)

// toStarlarkValue converts snapshots and functions into starlark values.
// Named scalar types with a String method, like load states, become strings.
func toStarlarkValue(name string, v any) starlark.Value {
	switch v := v.(type) {
	case nil:
		return starlark.None
	case starlark.Value:
		return v
	case []byte:
		return starlark.Bytes(v)
	}

	value := reflect.ValueOf(v)
	kind := value.Kind()

	if stringer, ok := v.(fmt.Stringer); ok {
		switch kind {
		case reflect.Struct, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Interface:
		default:
			return starlark.String(stringer.String())
		}
	}

	switch kind {
	case reflect.Bool:
		return starlark.Bool(value.Bool())
	case reflect.String:
		return starlark.String(value.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(value.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return starlark.MakeUint64(value.Uint())
	case reflect.Float32, reflect.Float64:
		return starlark.Float(value.Float())

	case reflect.Slice, reflect.Array:
		elems := make([]starlark.Value, value.Len())
		for i := range elems {
			elems[i] = toStarlarkValue(name, value.Index(i).Interface())
		}
		return starlark.NewList(elems)

	case reflect.Map:
		d := starlark.NewDict(value.Len())
		iter := value.MapRange()
		for iter.Next() {
			_ = d.SetKey(
				toStarlarkValue(name, iter.Key().Interface()),
				toStarlarkValue(name, iter.Value().Interface()),
			)
		}
		return d

	case reflect.Struct:
		typ := value.Type()
		d := starlark.NewDict(typ.NumField())
		for i := range typ.NumField() {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			_ = d.SetKey(
				starlark.String(field.Name),
				toStarlarkValue(field.Name, value.Field(i).Interface()),
			)
		}
		return d

	case reflect.Pointer, reflect.Interface:
		if value.IsNil() {
			return starlark.None
		}
		return toStarlarkValue(name, value.Elem().Interface())

	case reflect.Func:
		return starlarkutil.MakeFunc(name, v)
	}

	return starlark.String(fmt.Sprintf("%v", v))
}
