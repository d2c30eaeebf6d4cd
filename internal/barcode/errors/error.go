// Package errors provides the error taxonomy for barcode store, lookup and bulk-load operations.
package errors

import "errors"

// Store connector errors.
var ErrConfig = errors.New("invalid store configuration")
var ErrConnection = errors.New("store connection failed")
var ErrQuery = errors.New("store query failed")

// Lookup causes attached to an Error result.
var ErrStoreUnavailable = errors.New("store unavailable")
var ErrQueryFailed = errors.New("query failed")

// Bulk load errors.
var ErrSourceNotFound = errors.New("source not found")
var ErrSchemaMismatch = errors.New("source schema mismatch")
var ErrMergeFailed = errors.New("merge failed")
