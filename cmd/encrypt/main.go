// Command encrypt encrypts a byte stream with a Schmidt-Samoa public key.
// Each block is written as one decimal ciphertext line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/bitfsorg/libss-go/internal/cli"
	"github.com/bitfsorg/libss-go/keyfile"
	"github.com/bitfsorg/libss-go/keyring"
	"github.com/bitfsorg/libss-go/logging"
	"github.com/bitfsorg/libss-go/ss"
)

const tool = "encrypt"

func main() {
	if err := run(os.Args, cli.DefaultEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", tool, err)
		os.Exit(1)
	}
}

type options struct {
	in      string
	out     string
	pubFile string
	keyring string
	owner   string
	verbose bool
	help    bool
}

func usage(env cli.Env) {
	cli.Usage(env.Stdout, tool, []string{
		"Encrypts data using SS encryption.",
		"Encrypted data is decrypted by the decrypt program.",
	}, []cli.Option{
		{Flag: "-h", Desc: "Display program help and usage."},
		{Flag: "-v", Desc: "Display verbose program output."},
		{Flag: "-i infile", Desc: "Input file of data to encrypt (default: stdin)."},
		{Flag: "-o outfile", Desc: "Output file for encrypted data (default: stdout)."},
		{Flag: "-n pbfile", Desc: "Public key file (default: ss.pub)."},
		{Flag: "-k keyring", Desc: "Keyring to look up the recipient in."},
		{Flag: "-u owner", Desc: "Encrypt to the newest key of owner in the keyring."},
	})
}

func run(args []string, env cli.Env) error {
	cfg, cfgErr := cli.LoadConfig(env)

	var opts options
	fs := cli.NewFlagSet(tool, env.Stderr)
	fs.Usage = func() { usage(env) }
	fs.StringVar(&opts.in, "i", "", "input file")
	fs.StringVar(&opts.out, "o", "", "output file")
	fs.StringVar(&opts.pubFile, "n", cfg.PublicKeyFile, "public key file")
	fs.StringVar(&opts.keyring, "k", cfg.KeyringFile, "keyring file")
	fs.StringVar(&opts.owner, "u", "", "recipient owner")
	fs.BoolVar(&opts.verbose, "v", false, "verbose output")
	fs.BoolVar(&opts.help, "h", false, "show help")

	if len(args) > 0 {
		args = args[1:]
	}
	if err := cli.Parse(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.help {
		usage(env)
		return nil
	}
	if cfgErr != nil {
		return cfgErr
	}

	log, err := cli.NewLogger(env, cfg, tool, opts.verbose)
	if err != nil {
		return err
	}
	return encrypt(context.Background(), env, log, opts)
}

func encrypt(ctx context.Context, env cli.Env, log logging.Logger, opts options) error {
	pub, err := loadRecipient(ctx, log, opts)
	if err != nil {
		return err
	}

	if opts.verbose {
		fmt.Fprintf(env.Stderr, "user = %s\n", pub.Owner)
		cli.Report(env.Stderr, "n", pub.N)
	}

	in, closeIn, err := cli.OpenInput(opts.in, env.Stdin)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := cli.CreateOutput(opts.out, env.Stdout)
	if err != nil {
		return err
	}

	log.Debug(ctx, "encrypting", "block_size", ss.BlockSize(pub.N), "fingerprint", keyfile.Fingerprint(pub))
	if err := ss.EncryptStream(in, out, pub.N); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("%w: %w", keyfile.ErrIOFailure, err)
	}
	return nil
}

// loadRecipient prefers the keyring when an owner is named, and the public
// key file otherwise.
func loadRecipient(ctx context.Context, log logging.Logger, opts options) (*ss.PublicKey, error) {
	if opts.owner == "" {
		return keyfile.LoadPublicKey(opts.pubFile)
	}
	if opts.keyring == "" {
		return nil, cli.ErrKeyringRequired
	}

	kr, err := keyring.Open(opts.keyring)
	if err != nil {
		return nil, err
	}
	defer kr.Close()

	rec, err := kr.Latest(opts.owner)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "recipient from keyring", "owner", rec.Owner, "fingerprint", rec.Fingerprint)
	return rec.PublicKey()
}
