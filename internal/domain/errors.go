package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidDeployment      = fmt.Errorf("%w: unknown hotel", ErrInvalidInput)
	ErrPlayerNotFound         = errors.New("player not found")
	ErrUpstreamUnavailable    = errors.New("upstream unavailable")
	ErrPersistenceUnavailable = errors.New("persistence not configured")
)
