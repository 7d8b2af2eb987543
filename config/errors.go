// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidBits indicates the modulus size is below the cryptosystem minimum.
	ErrInvalidBits = errors.New("config: invalid bits (must be at least 32)")

	// ErrInvalidIters indicates the Miller-Rabin iteration count is not positive.
	ErrInvalidIters = errors.New("config: invalid iters (must be at least 1)")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrEmptyKeyFile indicates a key file path is empty.
	ErrEmptyKeyFile = errors.New("config: key file path must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrInvalidValue indicates a numeric setting could not be parsed.
	ErrInvalidValue = errors.New("config: invalid value")
)
