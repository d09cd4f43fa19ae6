package utils

// Value dereferences v, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// NonEmpty returns a pointer to s, or nil when s is empty. Used to build
// partial updates from form values where blank means "leave unchanged".
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
