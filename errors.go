package qparse

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch            = errors.New("input shape does not match template shape")
	ErrInvalidTemplate          = errors.New("template node was not built by Leaf, Fields or Seq")
	ErrUnsupportedInput         = errors.New("unsupported input type")
	ErrInvalidJSON              = errors.New("invalid JSON input")
	ErrUnknownCoercer           = errors.New("no coercer registered with this name")
	ErrInvalidCoercerExpr       = errors.New("invalid coercer expression")
	ErrCoercerAlreadyRegistered = errors.New("a coercer with this name is already registered")
	ErrInvalidTemplateSpec      = errors.New("invalid template spec")
	ErrInvalidDestination       = errors.New("destination must be a non-nil pointer to a struct")
	ErrUnsupportedFieldType     = errors.New("unsupported field type")
	ErrInvalidDefault           = errors.New("default value cannot be coerced by its field")
)

// ShapeError reports a point in the walk where the input has a shape the
// template cannot consume. It always unwraps to ErrShapeMismatch.
type ShapeError struct {
	Path     string   // Dotted path of the offending node, "" for the root
	Template NodeKind // What the template expected at Path
	Input    Kind     // What the input held at Path
}

// Error implements the error interface
func (se *ShapeError) Error() string {
	path := se.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf(
		"qparse: %s at %s: %s template cannot consume %s input",
		ErrShapeMismatch, path, se.Template, se.Input,
	)
}

func (se *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
