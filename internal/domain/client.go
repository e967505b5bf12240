package domain

import (
	"net/url"
	"time"
)

// ClientStatus represents the contract state of a customer.
type ClientStatus string

const (
	ClientStatusActive     ClientStatus = "ACTIVE"
	ClientStatusSuspended  ClientStatus = "SUSPENDED"
	ClientStatusTerminated ClientStatus = "TERMINATED"
)

// Client is a customer tickets are raised for.
type Client struct {
	ID        int64        `json:"id"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	Address   string       `json:"address"`
	Status    ClientStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (c Client) EntityID() int64 { return c.ID }

// ClientInput is the create/update payload.
type ClientInput struct {
	FirstName string       `json:"firstName" validate:"required"`
	LastName  string       `json:"lastName" validate:"required"`
	Email     string       `json:"email" validate:"required,email"`
	Phone     string       `json:"phone"`
	Address   string       `json:"address"`
	Status    ClientStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE SUSPENDED TERMINATED"`
}

// ClientFilter narrows client searches.
type ClientFilter struct {
	Query  string
	Status ClientStatus
}

// Values encodes the filter as query parameters.
func (f ClientFilter) Values() url.Values {
	values := url.Values{}
	setString(values, "query", f.Query)
	setString(values, "status", string(f.Status))
	return values
}
