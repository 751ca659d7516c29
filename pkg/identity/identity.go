// Package identity defines the equivalence and hash contract used to look up
// registered listeners.
//
// Invariants:
// - Equal(a, b) implies Hash(a) == Hash(b).
// - nil is equivalent only to nil and hashes to 0.
// - Values implementing Equaler but not Hasher hash by dynamic type only, so
//   equivalent values always share a bucket.
package identity

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Equaler lets a value define its own equivalence.
type Equaler interface {
	Equal(other any) bool
}

// Hasher lets a value define its own hash. Implementations must agree with Equal.
type Hasher interface {
	Hash() uint64
}

// Equal reports whether a and b are equivalent.
//
// Values whose dynamic contents are comparable use ==. Maps, slices, channels
// and pointers are compared by reference. Funcs are compared by closure: the
// same func value is equal to itself, while two closures allocated from one
// function literal are distinct. Structs, arrays and interfaces holding such
// values are compared field by field under the same rules. Pointers to
// distinct zero-size values may or may not compare equal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if e, ok := a.(Equaler); ok {
		return e.Equal(b)
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	va := reflect.ValueOf(a)
	if va.Comparable() && reflect.ValueOf(b).Comparable() {
		return a == b
	}
	return equalValue(addressable(a), addressable(b))
}

// addressable copies v into a fresh variable so nested func fields can be
// read by address.
func addressable(v any) reflect.Value {
	rv := reflect.New(reflect.TypeOf(v)).Elem()
	rv.Set(reflect.ValueOf(v))
	return rv
}

func equalValue(va, vb reflect.Value) bool {
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}

	switch va.Kind() {
	case reflect.Func:
		return funcWord(va) == funcWord(vb)
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Interface:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		ea, eb := va.Elem(), vb.Elem()
		if ea.Type() != eb.Type() {
			return false
		}
		if ea.Kind() == reflect.Func && va.CanAddr() && vb.CanAddr() {
			return ifaceData(va) == ifaceData(vb)
		}
		return equalValue(ea, eb)
	case reflect.Struct:
		for i := range va.NumField() {
			if !equalValue(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := range va.Len() {
			if !equalValue(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	}
	return false
}

// funcWord returns the closure pointer held by a func variable. Distinct
// closure allocations give distinct words; reflect.Value.Pointer would
// return the shared code pointer instead. Values that are not addressable
// fall back to the code pointer.
func funcWord(v reflect.Value) uintptr {
	if v.CanAddr() {
		return uintptr(*(*unsafe.Pointer)(unsafe.Pointer(v.UnsafeAddr())))
	}
	return v.Pointer()
}

// ifaceData returns the data word of an addressable interface value. Func
// values are stored directly in it.
func ifaceData(v reflect.Value) uintptr {
	words := (*[2]unsafe.Pointer)(unsafe.Pointer(v.UnsafeAddr()))
	return uintptr(words[1])
}

// Hash returns a hash consistent with Equal.
func Hash(v any) uint64 {
	if v == nil {
		return 0
	}
	if h, ok := v.(Hasher); ok {
		return h.Hash()
	}

	t := reflect.TypeOf(v)
	d := xxhash.New()
	_, _ = d.WriteString(t.String())

	if _, ok := v.(Equaler); ok {
		return d.Sum64()
	}

	var ref uintptr
	switch k := t.Kind(); {
	case k == reflect.Func:
		ref = funcWord(addressable(v))
	case hasReference(k):
		ref = reflect.ValueOf(v).Pointer()
	case isScalar(k):
		_, _ = fmt.Fprintf(d, "%v", v)
		return d.Sum64()
	default:
		return d.Sum64()
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(ref))
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

func hasReference(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Slice, reflect.Chan:
		return true
	}
	return false
}

// isScalar lists kinds whose %v rendering is injective under ==. Floats are
// excluded because +0 == -0 renders differently.
func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
