package binding

import (
	"fmt"
	"strings"

	"github.com/glimte/mmate-aspect/dispatcher"
	"github.com/glimte/mmate-aspect/interceptors"
)

// Entry is one registration a binding file produces
type Entry struct {
	Method      string
	Kind        dispatcher.Kind
	Interceptor string
	Binding     int
}

// Plan lists registrations in the order they are applied
type Plan []Entry

// ForMethod returns the entries of kind for method, in chain order
func (p Plan) ForMethod(method string, kind dispatcher.Kind) []Entry {
	var out []Entry
	for _, e := range p {
		if e.Method == method && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// String renders the plan one registration per line
func (p Plan) String() string {
	var b strings.Builder
	for _, e := range p {
		fmt.Fprintf(&b, "%-10s %-24s %s\n", e.Kind, e.Method, e.Interceptor)
	}
	return b.String()
}

type registration struct {
	entry       Entry
	interceptor interceptors.Interceptor
}

// Resolve computes the plan of cfg against candidates without touching a
// dispatcher. Factories are still run so parameter errors surface.
func Resolve(cfg *Config, catalog *Catalog, candidates []string) (Plan, error) {
	regs, err := resolve(cfg, catalog, candidates)
	if err != nil {
		return nil, err
	}
	return planOf(regs), nil
}

// Apply registers the bindings of cfg on d in file order. A binding's
// explicit methods are bound in listed order, followed by the candidates its
// `when` selects in candidate order. One instance is built per binding and
// shared by all its methods. Nothing is registered if any binding fails.
func Apply(d *dispatcher.Dispatcher, cfg *Config, catalog *Catalog, candidates []string) (Plan, error) {
	regs, err := resolve(cfg, catalog, candidates)
	if err != nil {
		return nil, err
	}

	for _, r := range regs {
		if err := d.Register(r.entry.Kind, r.entry.Method, r.interceptor); err != nil {
			return nil, &BindingError{Index: r.entry.Binding, Interceptor: r.entry.Interceptor, Err: err}
		}
	}

	return planOf(regs), nil
}

func resolve(cfg *Config, catalog *Catalog, candidates []string) ([]registration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var regs []registration
	for i, b := range cfg.Bindings {
		kind := dispatcher.MethodKind
		if b.kind() == KindException {
			kind = dispatcher.ExceptionKind
		}

		instance, err := catalog.Build(b.Interceptor, b.Params)
		if err != nil {
			return nil, &BindingError{Index: i, Interceptor: b.Interceptor, Err: err}
		}
		if err := checkKind(kind, instance); err != nil {
			return nil, &BindingError{Index: i, Interceptor: b.Interceptor, Err: err}
		}

		methods, err := selectMethods(b, candidates)
		if err != nil {
			return nil, &BindingError{Index: i, Interceptor: b.Interceptor, Err: err}
		}

		for _, method := range methods {
			regs = append(regs, registration{
				entry:       Entry{Method: method, Kind: kind, Interceptor: b.Interceptor, Binding: i},
				interceptor: instance,
			})
		}
	}

	return regs, nil
}

func checkKind(kind dispatcher.Kind, instance interceptors.Interceptor) error {
	var ok bool
	switch kind {
	case dispatcher.MethodKind:
		_, ok = instance.(interceptors.MethodInterceptor)
	case dispatcher.ExceptionKind:
		_, ok = instance.(interceptors.ExceptionInterceptor)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not a %s interceptor", dispatcher.ErrWrongKind, instance.Name(), kind)
	}
	return nil
}

func selectMethods(b Binding, candidates []string) ([]string, error) {
	seen := make(map[string]bool)
	var methods []string

	for _, m := range b.Methods {
		if !seen[m] {
			seen[m] = true
			methods = append(methods, m)
		}
	}

	if b.When == "" {
		return methods, nil
	}

	sel, err := compileSelector(b.When)
	if err != nil {
		return nil, err
	}
	for _, m := range candidates {
		if seen[m] {
			continue
		}
		matched, err := sel.matches(m)
		if err != nil {
			return nil, err
		}
		if matched {
			seen[m] = true
			methods = append(methods, m)
		}
	}

	return methods, nil
}

func planOf(regs []registration) Plan {
	plan := make(Plan, 0, len(regs))
	for _, r := range regs {
		plan = append(plan, r.entry)
	}
	return plan
}
