// Package callback implements the callback wrapper: a type-erasing holder
// of a user callable plus a decayed copy of its captured argument pack,
// invoked through a single entry point regardless of the object kind that
// owns it.
//
// A C++-style template dispatch selects one of two invocation shapes at
// compile time by introspecting the callable's arity. Go has no variadic
// templates, so this package instead builds a closure of dynamic type
// behind a single interface using reflection, once at Submit time rather
// than on every completion, so the arity check pays its cost exactly once
// per object.
package callback

import (
	"fmt"
	"reflect"

	"github.com/gontp/taskpool/api"
	"github.com/gontp/taskpool/internal/safecall"
)

// Kind identifies which object-specific parameter-conversion hook applies.
type Kind int

const (
	// KindWork and KindTimer convert to "no datum".
	KindWork Kind = iota
	KindTimer
	// KindWait converts the dispatcher's raw completion into a WaitResult.
	KindWait
	// KindIO converts the dispatcher's raw completion into an IOCompletion.
	KindIO
)

var (
	instanceHandleType = reflect.TypeOf((*api.InstanceHandle)(nil)).Elem()
	waitResultType     = reflect.TypeOf(api.WaitSignaled)
	ioCompletionType   = reflect.TypeOf(api.IOCompletion{})
)

func datumType(kind Kind) reflect.Type {
	switch kind {
	case KindWait:
		return waitResultType
	case KindIO:
		return ioCompletionType
	default:
		return nil
	}
}

// Wrapper is the immovable-identity holder: its address is the single
// stable identity shared with the dispatcher. Go's GC makes the literal
// address irrelevant, but the invariant that matters in practice survives
// unchanged: exactly one *Wrapper value is shared between whichever
// Context owns it and the dispatcher's completion trampoline. It is never
// copied after construction.
type Wrapper struct {
	kind          Kind
	fn            reflect.Value
	args          []reflect.Value
	wantsInstance bool
	wantsDatum    bool
}

// New builds a Wrapper around fn, forwarding args by decayed copy
// (reflect.ValueOf snapshots each argument's current value; pass a pointer
// explicitly to opt into by-reference capture).
func New(kind Kind, fn any, args []any) (*Wrapper, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "callback must be a function")
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "callback must not be variadic")
	}

	wantsInstance := ft.NumIn() > 0 && ft.In(0) == instanceHandleType
	cursor := 0
	if wantsInstance {
		cursor++
	}

	dt := datumType(kind)
	wantsDatum := dt != nil && ft.NumIn() > cursor && ft.In(cursor) == dt
	if wantsDatum {
		cursor++
	}

	remaining := ft.NumIn() - cursor
	if remaining != len(args) {
		return nil, api.NewError(api.ErrCodeInvalidArgument,
			fmt.Sprintf("callback expects %d trailing argument(s), got %d", remaining, len(args)))
	}

	argVals := make([]reflect.Value, len(args))
	for i, a := range args {
		want := ft.In(cursor + i)
		av := reflect.ValueOf(a)
		if !av.IsValid() {
			av = reflect.Zero(want)
		} else if !av.Type().AssignableTo(want) {
			return nil, api.NewError(api.ErrCodeInvalidArgument,
				fmt.Sprintf("argument %d: cannot use %s as %s", i, av.Type(), want))
		}
		argVals[i] = av
	}

	return &Wrapper{
		kind:          kind,
		fn:            fv,
		args:          argVals,
		wantsInstance: wantsInstance,
		wantsDatum:    wantsDatum,
	}, nil
}

// Invoke calls the wrapped callable, prepending instance and datum exactly
// when the callable's signature accepts them. It never panics: a user
// callable's panic is converted to an *api.Error via safecall.Callback.
func (w *Wrapper) Invoke(instance api.InstanceHandle, datum any) error {
	return safecall.Callback(func() {
		callArgs := make([]reflect.Value, 0, 2+len(w.args))
		if w.wantsInstance {
			if instance == nil {
				callArgs = append(callArgs, reflect.Zero(instanceHandleType))
			} else {
				callArgs = append(callArgs, reflect.ValueOf(instance))
			}
		}
		if w.wantsDatum {
			callArgs = append(callArgs, reflect.ValueOf(datum))
		}
		callArgs = append(callArgs, w.args...)
		w.fn.Call(callArgs)
	})
}
