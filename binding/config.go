package binding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Binding kinds accepted in a binding file
const (
	KindMethod    = "method"
	KindException = "exception"
)

// Config is a binding file
type Config struct {
	Name     string    `yaml:"name"`
	Bindings []Binding `yaml:"bindings"`
}

// Binding attaches one interceptor instance to a set of methods
type Binding struct {
	// Interceptor names a factory in the Catalog
	Interceptor string `yaml:"interceptor"`
	// Kind is "method" (default) or "exception"
	Kind string `yaml:"kind"`
	// Methods are bound unconditionally
	Methods []string `yaml:"methods"`
	// When is a CEL expression over `method` selecting further candidates
	When string `yaml:"when"`
	// Params are passed to the factory
	Params map[string]any `yaml:"params"`
}

// kind returns the binding kind with the default applied
func (b Binding) kind() string {
	if b.Kind == "" {
		return KindMethod
	}
	return b.Kind
}

// Parse decodes and validates a binding file. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load reads and parses the binding file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read binding file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the structure of the file and compiles every selector.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	for i, b := range c.Bindings {
		if b.Interceptor == "" {
			errs = append(errs, &BindingError{Index: i, Err: errors.New("interceptor is required")})
			continue
		}

		if k := b.kind(); k != KindMethod && k != KindException {
			errs = append(errs, &BindingError{
				Index: i, Interceptor: b.Interceptor,
				Err: fmt.Errorf("kind %q is not valid (must be one of: method, exception)", b.Kind),
			})
		}

		if len(b.Methods) == 0 && b.When == "" {
			errs = append(errs, &BindingError{
				Index: i, Interceptor: b.Interceptor,
				Err: errors.New("at least one of methods or when is required"),
			})
		}

		for _, m := range b.Methods {
			if m == "" {
				errs = append(errs, &BindingError{Index: i, Interceptor: b.Interceptor, Err: errors.New("empty method name")})
			}
		}

		if b.When != "" {
			if _, err := compileSelector(b.When); err != nil {
				errs = append(errs, &BindingError{Index: i, Interceptor: b.Interceptor, Err: err})
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
