package domain

import "errors"

var (
	ErrInvalidEntity      = errors.New("invalid_entity")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidAccountType = errors.New("invalid_account_type")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidBalanceSide = errors.New("invalid_balance_side")
	ErrNotFound           = errors.New("not_found")
	ErrBalanceFrozen      = errors.New("balance_frozen")
)
