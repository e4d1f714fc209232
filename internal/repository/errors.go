// Package repository defines the data access layer and the sentinel errors
// shared across repositories.  Handlers translate these values into HTTP
// responses: ErrEmailExists becomes 409, the not-found values become 404.
package repository

import "errors"

// ErrEmailExists is returned when an account-holder registration reuses an
// email that is already taken.  Beneficiary emails are intentionally not
// unique and never produce this error.
var ErrEmailExists = errors.New("email already exists")

// ErrItemNotFound is returned when an item does not exist, and also when it
// exists but belongs to someone else.  Write paths report both cases
// identically so non-owners cannot tell whether a foreign item id exists.
var ErrItemNotFound = errors.New("item not found")

// ErrBeneficiaryNotFound is returned when no beneficiary record matches, or
// when an account-holder has no linked beneficiary.
var ErrBeneficiaryNotFound = errors.New("beneficiary not found")
