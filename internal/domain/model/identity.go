package model

// Identity is the caller principal resolved by the external identity service.
type Identity struct {
	UserID string
}
