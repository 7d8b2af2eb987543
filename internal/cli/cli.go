// Package cli holds the plumbing shared by the keygen, encrypt and decrypt
// commands: the injectable process environment, config resolution, stream
// opening, usage text and the -v report.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/bitfsorg/libss-go/config"
	"github.com/bitfsorg/libss-go/keyfile"
	"github.com/bitfsorg/libss-go/logging"
)

// Environment variable names read by the commands.
const (
	EnvConfig     = "SS_CONFIG"
	EnvPassphrase = "SS_PASSPHRASE"
)

// Env is everything a command touches outside its arguments.
type Env struct {
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Getenv   func(string) string
	Username func() string
	Now      func() time.Time
}

// DefaultEnv binds Env to the running process.
func DefaultEnv() Env {
	return Env{
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Getenv:   os.Getenv,
		Username: currentUser,
		Now:      time.Now,
	}
}

// DefaultOwner is recorded when no account name can be determined.
const DefaultOwner = "unknown"

// Owner returns explicit when set, else the account name from env, else
// DefaultOwner.
func Owner(env Env, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env.Username != nil {
		if name := strings.TrimSpace(env.Username()); name != "" {
			return name
		}
	}
	return DefaultOwner
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// LoadConfig reads $SS_CONFIG, or the default config path when unset. A
// missing file yields the defaults. On error the returned Config still holds
// usable defaults, so callers can finish flag handling (and -h) before
// reporting it.
func LoadConfig(env Env) (config.Config, error) {
	path := env.Getenv(EnvConfig)
	if path == "" {
		path = config.ConfigPath(config.DefaultDataDir())
	}

	cfg, err := config.LoadConfig(path)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return cfg, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// NewLogger returns a text logger on env.Stderr. verbose forces debug level.
func NewLogger(env Env, cfg config.Config, tool string, verbose bool) (logging.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	l, err := logging.NewText(env.Stderr, level)
	if err != nil {
		return nil, err
	}
	return l.With("tool", tool), nil
}

// NewFlagSet returns a flag set that reports parse errors instead of exiting.
func NewFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// Parse parses args (without the program name) and rejects positional leftovers.
func Parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s", ErrUnexpectedArgs, strings.Join(fs.Args(), " "))
	}
	return nil
}

// OpenInput opens path for reading, or returns stdin when path is empty.
func OpenInput(path string, stdin io.Reader) (io.Reader, func() error, error) {
	if path == "" {
		return stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", keyfile.ErrIOFailure, err)
	}
	return f, f.Close, nil
}

// CreateOutput creates path for writing, or returns stdout when path is empty.
func CreateOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", keyfile.ErrIOFailure, err)
	}
	return f, f.Close, nil
}

// Option is one line of usage text.
type Option struct {
	Flag string
	Desc string
}

// Usage prints help in the SYNOPSIS / USAGE / OPTIONS layout.
func Usage(w io.Writer, tool string, synopsis []string, opts []Option) {
	fmt.Fprintln(w, "SYNOPSIS")
	for _, line := range synopsis {
		fmt.Fprintf(w, "   %s\n", line)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE")
	fmt.Fprintf(w, "   %s [OPTIONS]\n\n", tool)
	fmt.Fprintln(w, "OPTIONS")
	for _, o := range opts {
		fmt.Fprintf(w, "   %-18s %s\n", o.Flag, o.Desc)
	}
}

// Report prints "name (B bits) = value" for the -v output.
func Report(w io.Writer, name string, x *big.Int) {
	fmt.Fprintf(w, "%s (%d bits) = %s\n", name, x.BitLen(), x.String())
}
