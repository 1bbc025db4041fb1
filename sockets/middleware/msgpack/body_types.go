package msgpack

// M is shorthand for a map[string]any. It is provided as a convenience for
// defining message objects in a more concise manner.
type M map[string]any

// Error represents a wrapped error. If you want to return a wrapped error,
// you can use this type. The response will be {"error": "your error message"}.
type Error string

// A FieldError can be used as a response body to indicate that a message
// body failed validation. The response will be an object with the field
// name as the key and the error message as the value.
// A slice of FieldErrors can also be used to return multiple validation
// errors.
type FieldError struct {
	Field string
	Error string
}
