package domain

import "errors"

var (
	ErrInvalidEntity         = errors.New("invalid_entity")
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidTaxCode        = errors.New("invalid_tax_code")
	ErrInvalidTaxMode        = errors.New("invalid_tax_mode")
	ErrInvalidTaxRate        = errors.New("invalid_tax_rate")
	ErrInvalidControlAccount = errors.New("invalid_control_account")
	ErrNotFound              = errors.New("not_found")
)
