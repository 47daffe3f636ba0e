package domain

import "errors"

var (
	// ErrLoad wraps every failure to read or parse a balance snapshot.
	ErrLoad = errors.New("balance snapshot could not be loaded")
	// ErrUnknownWarehouse is returned for origins absent from the snapshot.
	ErrUnknownWarehouse = errors.New("unknown warehouse")
	// ErrInvalidThreshold is returned for thresholds outside the accepted range.
	ErrInvalidThreshold = errors.New("threshold out of range")
	// ErrUnknownReport is returned for report names that do not resolve.
	ErrUnknownReport = errors.New("unknown report")
	// ErrOriginRequired is returned when a report needs a single origin warehouse.
	ErrOriginRequired = errors.New("a specific origin warehouse is required")
)
