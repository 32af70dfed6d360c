package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested bucket list item or destination does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates the destination is already in the bucket list
	ErrConflict = errors.New("resource already exists")

	// ErrServerOffline indicates the API server is unreachable
	ErrServerOffline = errors.New("api server is unreachable")

	// ErrGenerationNotFound indicates the named cache generation does not exist
	ErrGenerationNotFound = errors.New("cache generation not found")

	// ErrInstallFailed indicates a manifest asset could not be cached during install
	ErrInstallFailed = errors.New("offline cache install failed")

	// ErrNotActive indicates a request reached a cache manager that is not active
	ErrNotActive = errors.New("offline cache manager is not active")

	// ErrInvalidTransition indicates a lifecycle event arrived in the wrong state
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)
