package service

import "errors"

var (
	// ErrTierLocked: the module needs a higher sprint tier.
	ErrTierLocked = errors.New("module locked at this tier")
	// ErrModuleLocked: the persisted row is flagged locked.
	ErrModuleLocked = errors.New("module is locked")
	// ErrPrecondition: upstream data required before generation is missing.
	ErrPrecondition = errors.New("precondition not met")
	// ErrUnknownModule: module type absent from the tier catalog.
	ErrUnknownModule = errors.New("unknown module type")
)
