// Package repository implements the persistence gateway: parameterized
// SQL over a pooled *sql.DB, with transactions for multi-row writes.
// This file defines sentinel error values reused across repositories so
// handlers can map failures to precise HTTP responses.  "Not found" is
// signalled with sql.ErrNoRows throughout, matching database/sql.
package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmailExists is returned when registration or an email update would
// duplicate an existing account.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrDishInUse is returned when a dish cannot be deleted because order
// line items still reference it.  Handlers translate this into HTTP 409.
var ErrDishInUse = errors.New("dish is referenced by existing orders")

// ErrUserHasOpenOrders is returned when a user cannot be deleted because
// they own orders that are not completed.
var ErrUserHasOpenOrders = errors.New("user has orders that are not completed")

// ErrInvalidTransition is returned when an order status update does not
// follow ordered -> processing -> delivering -> completed.
var ErrInvalidTransition = errors.New("illegal order status transition")

// MissingDishesError reports the exact dish ids an order referenced that
// do not exist in the catalog.  Handlers translate it into HTTP 404 and
// include the ids in the response body.
type MissingDishesError struct {
	IDs []uint64
}

func (e *MissingDishesError) Error() string {
	parts := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		parts = append(parts, strconv.FormatUint(id, 10))
	}
	return fmt.Sprintf("dishes not found: %s", strings.Join(parts, ", "))
}
