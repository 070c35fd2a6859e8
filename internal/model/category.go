package model

import "time"

// Category is an owner-scoped expense or income category.
type Category struct {
	CreatedAt time.Time
	OwnerID   string
	Name      string
	ID        int64
}

// Payee is an owner-scoped counterparty a transaction can be attributed to.
type Payee struct {
	CreatedAt time.Time
	OwnerID   string
	Name      string
	ID        int64
}
