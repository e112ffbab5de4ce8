package types

import "errors"

var (
	// ErrTemplate is returned when a template is missing or cannot be rendered.
	ErrTemplate = errors.New("template error")
	// ErrClassification is returned when the result kind cannot be determined.
	ErrClassification = errors.New("classification error")
	// ErrInvalidResponse is returned when the model reply is empty.
	ErrInvalidResponse = errors.New("invalid response from the model")
	// ErrFormatMismatch is returned when the model reply lacks the expected tag.
	ErrFormatMismatch = errors.New("response does not match the expected format")
	// ErrGeneration is returned when no code could be generated.
	ErrGeneration = errors.New("generation error")
	// ErrExecution is returned when generated code fails to load or run.
	ErrExecution = errors.New("execution error")
	// ErrTypeMismatch is returned when generated code returns the wrong type.
	ErrTypeMismatch = errors.New("not correct return type")
)
