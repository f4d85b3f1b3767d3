// Package validator validates request and domain structs.
//
// Business code depends on the Validator interface; V10Validator backs it with
// go-playground/validator and English messages keyed by snake_case field names.
package validator

// Validator validates a struct using its `validate` tags.
type Validator interface {
	Validate(data any) error
}
