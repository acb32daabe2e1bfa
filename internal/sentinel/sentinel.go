package sentinel

// Compile-time check that Error implements the error interface.
var _ error = Error("")

// Error is an immutable error type backed by a string constant.
// Unlike errors.New, which returns a pointer and must be stored in a var,
// Error values can be declared as const, preventing reassignment.
//
// Two Error values are equal when their text is equal, so errors.Is matches
// a constant against any wrapped copy of itself without a custom Is method.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
