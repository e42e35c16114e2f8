// Package customers manages the customer registry. The cached outstanding
// deposit total lives on the customer row and is adjusted by the sales and
// returnables transactions, never recomputed here.
package customers

import (
	"errors"
	"time"
)

// Customer types.
const (
	TypeIndividual = "INDIVIDUAL"
	TypeReseller   = "RESELLER"
)

// Customer statuses.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Customer is a registry entry. OutstandingReturnableDepo mirrors the sum of
// deposit_value_total over the customer's returnable ledger rows.
type Customer struct {
	ID                        int64     `json:"id"`
	Name                      string    `json:"name"`
	Type                      string    `json:"type"`
	Phone                     string    `json:"phone,omitempty"`
	Address                   string    `json:"address,omitempty"`
	Neighborhood              string    `json:"neighborhood,omitempty"`
	Status                    string    `json:"status"`
	OutstandingReturnableDepo float64   `json:"outstanding_returnable_depo"`
	CreatedAt                 time.Time `json:"created_at"`
}

// Input carries the writable customer fields.
type Input struct {
	Name         string
	Type         string
	Phone        string
	Address      string
	Neighborhood string
	Status       string
}

var (
	// ErrNotFound indicates the customer does not exist.
	ErrNotFound = errors.New("customers: customer not found")
	// ErrHasSales blocks deletion of a customer with sale history.
	ErrHasSales = errors.New("customers: customer has sale orders")
	// ErrValidation indicates a malformed input.
	ErrValidation = errors.New("customers: invalid input")
)
