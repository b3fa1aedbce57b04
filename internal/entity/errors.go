package entity

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrMissingIdentity = errors.New("purchaser email missing")
	ErrEmptyBasket     = errors.New("basket is empty")
)
