// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by someone
// else, while ErrOutOfStock signals that an order asked for more units
// than the catalog currently holds.
package repository

import "errors"

// ErrEmailExists is returned by user creation when the email address is
// already registered. Handlers translate this into HTTP 400.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrProductNotFound is returned by the order transactor when a
// requested line item references a product that does not exist. The
// whole transaction is rolled back.
var ErrProductNotFound = errors.New("product not found")

// ErrOutOfStock is returned by the order transactor when a requested
// quantity exceeds the units currently in stock. The whole transaction
// is rolled back. Over the wire this still surfaces as a generic
// server error; the distinction exists for logging and tests.
var ErrOutOfStock = errors.New("insufficient stock")
