package services

import "errors"

// Shared sentinel errors, mapped onto HTTP statuses in the handlers layer.
var (
	// Missing references.
	ErrNotFound         = errors.New("requested resource not found")
	ErrSportNotFound    = errors.New("sport not found")
	ErrPresetNotFound   = errors.New("rule preset not found")
	ErrFormatNotFound   = errors.New("format not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrMatchNotFound    = errors.New("match not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrCourtNotFound    = errors.New("court not found")

	// Configuration errors, detected only at snapshot or catalog-write
	// time. A running category never produces these: its configs were
	// validated before they were frozen.
	ErrConfigValidation = errors.New("invalid scoring or format configuration")
	ErrConfigMismatch   = errors.New("rule preset does not belong to the selected sport")

	// Lifecycle violations.
	ErrInvalidTransition     = errors.New("operation not allowed in the current state")
	ErrRegistrationClosed    = errors.New("category registration is closed")
	ErrCategoryFull          = errors.New("category registration is full")
	ErrDuplicateEntry        = errors.New("player is already registered in this category")
	ErrMatchAlreadyCompleted = errors.New("match is already completed")
	ErrMatchNotReady         = errors.New("match is still waiting for participants")
	ErrSetIndexOutOfRange    = errors.New("set index is out of range for the match configuration")
	ErrCourtNotAssignable    = errors.New("match is not waiting for a court")

	// Transient: the transactional write into a successor match's slot hit
	// a concurrent conflicting write. Safe to retry the whole RecordScore
	// call with identical arguments.
	ErrPropagationConflict = errors.New("winner propagation conflicted with a concurrent update")

	// Object storage is an optional deployment feature.
	ErrUploadsDisabled = errors.New("logo storage is not configured")

	// Catalog conflicts.
	ErrSportNameConflict  = errors.New("sport name already exists")
	ErrFormatNameConflict = errors.New("format name already exists")
	ErrFormatInUse        = errors.New("format cannot be deleted as it is in use")
	ErrNameRequired       = errors.New("name is required")
)
