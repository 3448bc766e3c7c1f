package domain

import "errors"

var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict (e.g. duplicate username).
	ErrAlreadyExists = errors.New("already exists")
	// ErrAuthentication covers bad credentials, invalid or expired tokens, and locked accounts.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization indicates the acting user's role is insufficient.
	ErrAuthorization = errors.New("authorization failed")
	// ErrInventory indicates a stock mutation would drive stock negative.
	ErrInventory = errors.New("insufficient stock")
	// ErrPayment covers unknown payment methods, unknown references, and
	// confirmation attempts on methods that do not support them.
	ErrPayment = errors.New("payment failed")
	// ErrInvalidInput indicates malformed input such as an empty cart at
	// checkout or a non-positive quantity.
	ErrInvalidInput = errors.New("invalid input")
)
