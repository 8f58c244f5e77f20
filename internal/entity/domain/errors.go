package domain

import "errors"

var (
	ErrInvalidEntity      = errors.New("invalid_entity")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrNotFound           = errors.New("not_found")
	ErrDuplicateBase      = errors.New("duplicate_base_currency")
	ErrMissingBase        = errors.New("missing_base_currency")
	ErrEntityNotInContext = errors.New("entity_not_in_context")
)
