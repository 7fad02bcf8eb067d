package anno

import (
	"sync"

	"github.com/pkg/errors"
)

// classNameKey is the data dict entry holding the class name of the value
// a dict was built from.
const classNameKey = "_class_name"

// SetClassName tags a data dict with a class name. The key is reserved, a
// dict that already carries an entry for it cannot be tagged.
func SetClassName(data map[string]any, className string) error {
	if _, ok := data[classNameKey]; ok {
		return errors.Errorf("found pre-existing entry for key %s in data dict", classNameKey)
	}

	data[classNameKey] = className

	return nil
}

// ClassName returns the class name a data dict was tagged with.
func ClassName(data map[string]any) (string, error) {
	className, ok := data[classNameKey].(string)
	if !ok {
		return "", errors.Errorf("data dict has no entry for key %s", classNameKey)
	}

	return className, nil
}

// CheckClassName verifies that a data dict was tagged with the expected
// class name.
func CheckClassName(data map[string]any, className string) error {
	found, err := ClassName(data)
	if err != nil {
		return err
	}

	if found != className {
		return errors.Errorf("data dict has class name %s, expected %s", found, className)
	}

	return nil
}

// Registry maps class names to decoder functions so that serialized values
// sharing a common interface can be rebuilt polymorphically. Decoders are
// usually registered from init functions, one registry per interface.
type Registry[T any] struct {
	mu       sync.RWMutex
	decoders map[string]func(map[string]any) (T, error)
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		decoders: make(map[string]func(map[string]any) (T, error)),
	}
}

// Register binds a class name to its decoder. Registering the same class
// name twice is an error.
func (r *Registry[T]) Register(className string, decode func(map[string]any) (T, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.decoders[className]; ok {
		return errors.Errorf("decoder already registered for class name %s", className)
	}

	r.decoders[className] = decode

	return nil
}

// Decode rebuilds a value from a data dict, dispatching on the class name
// the dict was tagged with.
func (r *Registry[T]) Decode(data map[string]any) (T, error) {
	var zero T

	className, err := ClassName(data)
	if err != nil {
		return zero, err
	}

	r.mu.RLock()
	decode, ok := r.decoders[className]
	r.mu.RUnlock()

	if !ok {
		return zero, errors.Errorf("no decoder registered for class name %s", className)
	}

	return decode(data)
}
