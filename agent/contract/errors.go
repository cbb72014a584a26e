package contract

import "errors"

var (
	// ErrClassification marks a classifier failure: the underlying model
	// could not produce a structurally valid classification.
	ErrClassification = errors.New("classification failed")
	// ErrGeneration marks a domain agent failure: the underlying model
	// could not produce a structurally valid answer.
	ErrGeneration = errors.New("answer generation failed")
	// ErrConfiguration marks an invalid router or registry setup.
	ErrConfiguration = errors.New("agent configuration invalid")

	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
)
