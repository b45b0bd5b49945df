package proxy

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/glimte/mmate-aspect/invocation"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// signature describes how a method is driven from an invocation
type signature struct {
	name       string
	index      int
	takesCtx   bool
	params     []reflect.Type
	variadic   bool
	returnsVal bool
	returnsErr bool
}

// reflectCallee calls the exported methods of a value by name
type reflectCallee struct {
	value   reflect.Value
	methods map[string]signature
}

// Reflect returns a Callee that calls the method of v named by each
// invocation, passing the invocation's arguments. Supported methods take an
// optional leading context.Context and return at most one value followed by
// an optional error. Other methods are not callable.
func Reflect(v any) (invocation.Callee, error) {
	if v == nil {
		return nil, ErrNilTarget
	}

	value := reflect.ValueOf(v)
	methods := make(map[string]signature)
	for i := 0; i < value.NumMethod(); i++ {
		name := value.Type().Method(i).Name
		if sig, ok := signatureOf(name, value.Method(i).Type()); ok {
			sig.index = i
			methods[name] = sig
		}
	}

	return &reflectCallee{value: value, methods: methods}, nil
}

// MethodNames returns the sorted names of the methods of v that Reflect can call
func MethodNames(v any) []string {
	if v == nil {
		return nil
	}

	value := reflect.ValueOf(v)
	var names []string
	for i := 0; i < value.NumMethod(); i++ {
		name := value.Type().Method(i).Name
		if _, ok := signatureOf(name, value.Method(i).Type()); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func signatureOf(name string, t reflect.Type) (signature, bool) {
	sig := signature{name: name, variadic: t.IsVariadic()}

	first := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		sig.takesCtx = true
		first = 1
	}
	for i := first; i < t.NumIn(); i++ {
		sig.params = append(sig.params, t.In(i))
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			sig.returnsErr = true
		} else {
			sig.returnsVal = true
		}
	case 2:
		if t.Out(1) != errorType {
			return signature{}, false
		}
		sig.returnsVal = true
		sig.returnsErr = true
	default:
		return signature{}, false
	}

	return sig, true
}

// Call implements invocation.Callee
func (c *reflectCallee) Call(ctx context.Context, inv *invocation.Invocation) (any, error) {
	sig, ok := c.methods[inv.Method()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, inv.Method())
	}

	in, err := sig.arguments(ctx, inv.Arguments())
	if err != nil {
		return nil, err
	}

	out := c.value.Method(sig.index).Call(in)

	var result any
	if sig.returnsVal {
		result = out[0].Interface()
	}
	if sig.returnsErr {
		if last := out[len(out)-1]; !last.IsNil() {
			return result, last.Interface().(error)
		}
	}
	return result, nil
}

func (s signature) arguments(ctx context.Context, args []any) ([]reflect.Value, error) {
	fixed := len(s.params)
	if s.variadic {
		fixed--
	}

	if len(args) < fixed || (!s.variadic && len(args) > fixed) {
		want := fmt.Sprintf("%d arguments", fixed)
		if s.variadic {
			want = "at least " + want
		}
		return nil, &ArgumentError{Method: s.name, Index: -1, Want: want, Got: fmt.Sprintf("%d", len(args))}
	}

	in := make([]reflect.Value, 0, len(args)+1)
	if s.takesCtx {
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}

	for i, arg := range args {
		want := s.paramType(i)
		v, ok := convert(arg, want)
		if !ok {
			return nil, &ArgumentError{Method: s.name, Index: i, Want: want.String(), Got: fmt.Sprintf("%T", arg)}
		}
		in = append(in, v)
	}

	return in, nil
}

func (s signature) paramType(i int) reflect.Type {
	if s.variadic && i >= len(s.params)-1 {
		return s.params[len(s.params)-1].Elem()
	}
	return s.params[i]
}

// convert adapts arg to want. Nil is accepted for nillable types and numeric
// values are converted between numeric kinds when no value is lost.
func convert(arg any, want reflect.Type) (reflect.Value, bool) {
	if arg == nil {
		switch want.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(want), true
		}
		return reflect.Value{}, false
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(want) {
		return v, true
	}
	if numeric(v.Kind()) && numeric(want.Kind()) && fits(v, want) {
		return v.Convert(want), true
	}
	return reflect.Value{}, false
}

type numberClass int

const (
	notNumeric numberClass = iota
	signed
	unsigned
	floating
)

func classOf(k reflect.Kind) numberClass {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return signed
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsigned
	case reflect.Float32, reflect.Float64:
		return floating
	}
	return notNumeric
}

func numeric(k reflect.Kind) bool {
	return classOf(k) != notNumeric
}

// fits reports whether v converts to want without overflow or truncation.
// Integers converted to floats are accepted even where precision is lost.
func fits(v reflect.Value, want reflect.Type) bool {
	target := reflect.Zero(want)

	switch classOf(want.Kind()) {
	case signed:
		switch classOf(v.Kind()) {
		case signed:
			return !target.OverflowInt(v.Int())
		case unsigned:
			u := v.Uint()
			return u <= math.MaxInt64 && !target.OverflowInt(int64(u))
		case floating:
			f := v.Float()
			return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !target.OverflowInt(int64(f))
		}

	case unsigned:
		switch classOf(v.Kind()) {
		case signed:
			i := v.Int()
			return i >= 0 && !target.OverflowUint(uint64(i))
		case unsigned:
			return !target.OverflowUint(v.Uint())
		case floating:
			f := v.Float()
			return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !target.OverflowUint(uint64(f))
		}

	case floating:
		if classOf(v.Kind()) == floating {
			return !target.OverflowFloat(v.Float())
		}
		return true
	}

	return false
}
