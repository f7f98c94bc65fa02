// Package services defines the business logic for item reports, matches,
// notifications and matching sweeps. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrItemNotFound indicates that the requested item report does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidItem wraps every validation failure of a submitted report.
	// The wrapped message names the offending field.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidStatus is returned for a lifecycle status outside
	// active, returned and closed.
	ErrInvalidStatus = errors.New("invalid item status")

	// ErrForbidden is returned when a user changes an item they do not own.
	ErrForbidden = errors.New("item belongs to another user")

	// ErrNotificationNotFound indicates that the notification does not exist
	// or is addressed to someone else.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrEmptyQuery is returned by search for a blank query.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrSweepInProgress is returned when another process holds the sweep lease.
	ErrSweepInProgress = errors.New("a matching sweep is already running")
)
