// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the key=value configuration shared by the
// keygen, encrypt and decrypt tools.
//
// Example file:
//
//	# SS Configuration
//	bits = 1024
//	iters = 50
//	pubfile = ss.pub
//	privfile = ss.priv
//	keyring = /home/alice/.ss/keyring.db
//	loglevel = info
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds tool defaults. Command-line flags override these values.
type Config struct {
	DataDir        string
	Bits           int
	Iters          int
	PublicKeyFile  string
	PrivateKeyFile string
	KeyringFile    string // empty disables the keyring
	LogLevel       string
}

// DefaultDataDir returns ~/.ss, or .ss in the working directory when the
// home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".ss"
	}
	return filepath.Join(home, ".ss")
}

// DefaultConfig returns the defaults of the original tools.
func DefaultConfig() Config {
	return Config{
		DataDir:        DefaultDataDir(),
		Bits:           256,
		Iters:          50,
		PublicKeyFile:  "ss.pub",
		PrivateKeyFile: "ss.priv",
		KeyringFile:    "",
		LogLevel:       "info",
	}
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// LoadConfig reads path on top of DefaultConfig. Blank lines and lines
// starting with '#' are skipped; unknown keys are ignored so older tools can
// read newer files.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, ErrConfigNotFound
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", err, lineNo, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d", err, lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	return cfg, nil
}

// parseKeyValue splits "key = value" on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "datadir":
		c.DataDir = value
	case "bits":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: bits %q", ErrInvalidValue, value)
		}
		c.Bits = n
	case "iters":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: iters %q", ErrInvalidValue, value)
		}
		c.Iters = n
	case "pubfile":
		c.PublicKeyFile = value
	case "privfile":
		c.PrivateKeyFile = value
	case "keyring":
		c.KeyringFile = value
	case "loglevel":
		c.LogLevel = value
	}
	return nil
}

// SaveConfig writes cfg to path, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# SS Configuration\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "bits = %d\n", cfg.Bits)
	fmt.Fprintf(&b, "iters = %d\n", cfg.Iters)
	fmt.Fprintf(&b, "pubfile = %s\n", cfg.PublicKeyFile)
	fmt.Fprintf(&b, "privfile = %s\n", cfg.PrivateKeyFile)
	fmt.Fprintf(&b, "keyring = %s\n", cfg.KeyringFile)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
