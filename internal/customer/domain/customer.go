package domain

import (
	"fmt"
	"time"
)

// Customer is immutable after creation.
type Customer struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CustomerNotFoundError struct {
	CustomerID int64
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer with id %d not found", e.CustomerID)
}

type DuplicateCustomerError struct {
	Email string
}

func (e *DuplicateCustomerError) Error() string {
	return fmt.Sprintf("customer with email %s already exists", e.Email)
}
