package types

import (
	"reflect"
	"testing"
)

type flat struct {
	ID    uint64
	Value float64
	Tag   [16]byte
}

type nested struct {
	Inner flat
	Arr   [4]flat
}

type holdsString struct {
	Name string
}

type holdsSlice struct {
	Buf []byte
}

type holdsPointer struct {
	Next *flat
}

func typeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func TestShmDataAcceptsFlatTypes(t *testing.T) {
	ok := []reflect.Type{
		typeFor[uint64](),
		typeFor[float64](),
		typeFor[[32]byte](),
		typeFor[flat](),
		typeFor[nested](),
		typeFor[complex128](),
	}
	for _, typ := range ok {
		if !ShmData(typ) {
			t.Errorf("ShmData(%s) = false, want true", typ)
		}
	}
}

func TestShmDataRejectsPointerCarriers(t *testing.T) {
	bad := []reflect.Type{
		typeFor[string](),
		typeFor[[]byte](),
		typeFor[*flat](),
		typeFor[map[int]int](),
		typeFor[chan int](),
		typeFor[holdsString](),
		typeFor[holdsSlice](),
		typeFor[holdsPointer](),
		typeFor[[2]holdsPointer](),
		typeFor[any](),
	}
	for _, typ := range bad {
		if ShmData(typ) {
			t.Errorf("ShmData(%s) = true, want false", typ)
		}
	}
}

func TestAssertShmDataPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("AssertShmData[holdsString] should panic")
		}
	}()
	AssertShmData[holdsString]()
}

func TestAssertShmDataPasses(t *testing.T) {
	AssertShmData[nested]()
	AssertShmData[flat]()
	AssertShmData[[8]uint32]()
}
