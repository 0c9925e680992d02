// Package repository implements the data access layer on top of
// database/sql.  This file defines sentinel error values shared by
// the repositories so that higher layers such as handlers can
// distinguish failure scenarios without string matching.  For
// example, ErrAssetNotFound maps to an HTTP 404 while ErrConflict
// maps to a 409.
package repository

import "errors"

// ErrEmailExists is returned when registering a user with an email
// address that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrFamilyNotFound is returned when a family referenced by id does
// not exist.
var ErrFamilyNotFound = errors.New("family not found")

// ErrAssetNotFound is returned when an asset does not exist or does
// not belong to the requester's family.  The two cases are
// deliberately indistinguishable: revealing that an asset exists in
// another family would leak inventory across tenant boundaries.
var ErrAssetNotFound = errors.New("asset not found")

// ErrReservationNotFound is returned when a reservation does not
// exist or does not belong to the requesting user.  As with assets,
// the two cases are reported identically.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrConflict is returned when an operation cannot proceed because
// of dependent state, such as deleting an asset that still has
// non-cancelled reservations.  Handlers translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")
