package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrSyncScheduleMissing error if the scheduler is enabled without a schedule.
	ErrSyncScheduleMissing = errors.New("toml config sync.schedule can not be empty when sync.enabled is set")

	// ErrInvalidValue error if a config value fails its validation rule.
	ErrInvalidValue = errors.New("toml config value is invalid")
)
