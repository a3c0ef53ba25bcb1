// ============================================================================
// ELEMENT TYPE PREDICATES
// ============================================================================
//
// The containers place element values in memory that is byte-copied under
// concurrent modification (seqlock readers) and mapped into foreign address
// spaces (shared-memory segments). Both uses constrain the element type:
//
//   - No pointers of any kind: a pointer copied across a process boundary is
//     meaningless, and a pointer read racily is a GC hazard.
//   - Fixed size known at construction: slot strides are precomputed.
//
// Go cannot express this as a compile-time constraint, so the predicate runs
// at container construction via reflection and panics on violation.
// This is the cold path; no reflection survives into any operation.

package types

import (
	"reflect"
)

// ShmData reports whether t is safe to host in a container slot: the value
// contains no pointers, so it can be bit-copied under racy reads and shared
// across address spaces.
func ShmData(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return ShmData(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !ShmData(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		// Ptr, UnsafePointer, Slice, String, Map, Chan, Func, Interface
		return false
	}
}

// AssertShmData panics unless T satisfies ShmData. Container constructors
// and footprint helpers call this; operations never re-check.
func AssertShmData[T any]() {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if !ShmData(t) {
		panic("shmchan: element type " + t.String() +
			" contains pointers and cannot live in shared or racily-read memory")
	}
}
