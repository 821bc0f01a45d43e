// Package store defines the persistence error contract shared by every
// store implementation in the auth core.
package store

import "errors"

// ErrNotFound is returned by Find methods when the entity does not exist.
// Services translate it into a domain error exactly once.
var ErrNotFound = errors.New("not found")
