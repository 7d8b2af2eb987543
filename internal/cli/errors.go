package cli

import "errors"

var (
	// ErrKeyringRequired indicates an owner lookup was requested without a keyring path.
	ErrKeyringRequired = errors.New("cli: -u requires a keyring (-k or keyring in config)")

	// ErrUnexpectedArgs indicates positional arguments were given.
	ErrUnexpectedArgs = errors.New("cli: unexpected arguments")
)
