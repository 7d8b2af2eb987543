// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"strings"

	"github.com/bitfsorg/libss-go/ss"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Bits < ss.MinBits {
		return ErrInvalidBits
	}

	if cfg.Iters < 1 {
		return ErrInvalidIters
	}

	if cfg.PublicKeyFile == "" || cfg.PrivateKeyFile == "" {
		return ErrEmptyKeyFile
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}
