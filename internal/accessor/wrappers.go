package accessor

import (
	"reflect"
	"sync/atomic"

	uatomic "go.uber.org/atomic"

	"github.com/toyz/mbean/internal/models"
	"github.com/toyz/mbean/internal/utils"
)

// Wrapper describes an atomic box type: its kind and the plain type its
// Load method returns and its Store method takes.
type Wrapper struct {
	Kind models.WrapperKind
	Elem reflect.Type
}

var wrappers = newWrapperTable()

func newWrapperTable() *utils.BaseRegistry[reflect.Type, Wrapper] {
	table := utils.NewBaseRegistry[reflect.Type, Wrapper]("wrapper", "wrapper type")
	table.SetValidator(utils.ChainValidators[reflect.Type, Wrapper](
		utils.NoDuplicateValidator[reflect.Type, Wrapper]("wrapper type"),
		func(t reflect.Type, w Wrapper, _ map[reflect.Type]Wrapper) error {
			if _, ok := reflect.PointerTo(t).MethodByName("Load"); !ok {
				return errNoMethod(t, "Load")
			}
			return nil
		},
	))

	builtin := []struct {
		box  reflect.Type
		kind models.WrapperKind
		elem reflect.Type
	}{
		{typeOf[atomic.Int32](), models.WrapperAtomicInt, typeOf[int32]()},
		{typeOf[atomic.Uint32](), models.WrapperAtomicInt, typeOf[uint32]()},
		{typeOf[atomic.Int64](), models.WrapperAtomicLong, typeOf[int64]()},
		{typeOf[atomic.Uint64](), models.WrapperAtomicLong, typeOf[uint64]()},
		{typeOf[atomic.Bool](), models.WrapperAtomicBool, typeOf[bool]()},
		{typeOf[uatomic.Int32](), models.WrapperAtomicInt, typeOf[int32]()},
		{typeOf[uatomic.Uint32](), models.WrapperAtomicInt, typeOf[uint32]()},
		{typeOf[uatomic.Int64](), models.WrapperAtomicLong, typeOf[int64]()},
		{typeOf[uatomic.Uint64](), models.WrapperAtomicLong, typeOf[uint64]()},
		{typeOf[uatomic.Bool](), models.WrapperAtomicBool, typeOf[bool]()},
		{typeOf[uatomic.String](), models.WrapperAtomicRef, typeOf[string]()},
	}
	for _, b := range builtin {
		if err := table.Register(b.box, Wrapper{Kind: b.kind, Elem: b.elem}); err != nil {
			panic(err)
		}
	}
	// atomic.Value holds anything; reads render it as text and it cannot be
	// written without knowing the element type
	if err := table.Register(typeOf[atomic.Value](), Wrapper{
		Kind: models.WrapperAtomicRef,
		Elem: typeOf[interface{}](),
	}); err != nil {
		panic(err)
	}
	return table
}

// RegisterWrapper teaches the synthesizer about another atomic box type.
// A pointer to box must have Load and Store methods working on values of elem.
func RegisterWrapper(box reflect.Type, kind models.WrapperKind, elem reflect.Type) error {
	return wrappers.Register(box, Wrapper{Kind: kind, Elem: elem})
}

// WrapperOf returns the wrapper description of t, if t is a known box type
func WrapperOf(t reflect.Type) (Wrapper, bool) {
	return wrappers.Get(t)
}

// KindOf returns the wrapper kind of t, WrapperNone for plain types
func KindOf(t reflect.Type) models.WrapperKind {
	if w, ok := wrappers.Get(t); ok {
		return w.Kind
	}
	return models.WrapperNone
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
