package configs

import "errors"

// First returns the first defined value at path, or the zero value if none.
// Malformed config is a programming or deployment error and panics.
func First[T any](loader Loader, path string) T {
	var value T
	if err := loader.AssignFirst(path, &value); err != nil {
		if errors.Is(err, ErrValueNotFound) {
			return value
		}
		panic(err)
	}
	return value
}
