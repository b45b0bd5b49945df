package dispatcher

import (
	"fmt"
	"reflect"

	"github.com/glimte/mmate-aspect/interceptors"
)

// Clone returns a dispatcher with the same registrations whose interceptors
// are duplicates of the receiver's. Every interceptor implementing
// interceptors.Cloner is cloned exactly once, so an instance registered for
// several methods or in both chains maps to a single duplicate. Pointers to
// structs that do not implement Cloner are duplicated by a shallow copy of
// the struct. Other interceptors, such as func or map types, cannot be copied
// and are shared.
func (d *Dispatcher) Clone() (*Dispatcher, error) {
	clone := New(WithName(d.name), WithLogger(d.logger))
	clones := make(map[any]interceptors.Interceptor)

	err := d.methods.each(func(method string, items []interceptors.MethodInterceptor) error {
		dup, err := cloneAll(MethodKind, method, items, clones)
		if err != nil {
			return err
		}
		clone.methods.append(method, dup...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.exceptions.each(func(method string, items []interceptors.ExceptionInterceptor) error {
		dup, err := cloneAll(ExceptionKind, method, items, clones)
		if err != nil {
			return err
		}
		clone.exceptions.append(method, dup...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Debug("dispatcher cloned",
		"dispatcher", d.name,
		"methods", len(clone.Methods(MethodKind)),
		"exceptionMethods", len(clone.Methods(ExceptionKind)),
		"clonedInterceptors", len(clones),
	)

	return clone, nil
}

func cloneAll[T interceptors.Interceptor](kind Kind, method string, items []T, clones map[any]interceptors.Interceptor) ([]T, error) {
	dup := make([]T, 0, len(items))
	for _, item := range items {
		c, err := cloneOne(kind, method, item, clones)
		if err != nil {
			return nil, err
		}
		dup = append(dup, c)
	}
	return dup, nil
}

func cloneOne[T interceptors.Interceptor](kind Kind, method string, item T, clones map[any]interceptors.Interceptor) (T, error) {
	cloner, isCloner := any(item).(interceptors.Cloner)
	if !isCloner && !copyable(item) {
		return item, nil
	}

	// Instances of non-comparable types cannot be keyed and are cloned per use.
	keyed := reflect.TypeOf(item).Comparable()
	var (
		cloned interceptors.Interceptor
		ok     bool
	)
	if keyed {
		cloned, ok = clones[item]
	}
	if !ok {
		if isCloner {
			cloned = cloner.Clone()
		} else {
			cloned = shallowCopy(item)
		}
		if keyed {
			clones[item] = cloned
		}
	}

	typed, ok := cloned.(T)
	if !ok || isNil(cloned) {
		var zero T
		return zero, &ConfigurationError{
			Op:          "clone",
			Kind:        kind,
			Method:      method,
			Interceptor: item.Name(),
			Err:         fmt.Errorf("%w: clone is %T", ErrWrongKind, cloned),
		}
	}
	return typed, nil
}

// copyable reports whether v is a non-nil pointer to a struct
func copyable(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
}

// shallowCopy returns a pointer to a new struct holding the fields of *v.
// Pointer, map and slice fields still refer to the same values.
func shallowCopy(v interceptors.Interceptor) interceptors.Interceptor {
	rv := reflect.ValueOf(v)
	dup := reflect.New(rv.Type().Elem())
	dup.Elem().Set(rv.Elem())
	return dup.Interface().(interceptors.Interceptor)
}
