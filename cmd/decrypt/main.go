// Command decrypt reverses encrypt using a Schmidt-Samoa private key.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/bitfsorg/libss-go/internal/cli"
	"github.com/bitfsorg/libss-go/keyfile"
	"github.com/bitfsorg/libss-go/logging"
	"github.com/bitfsorg/libss-go/ss"
)

const tool = "decrypt"

func main() {
	if err := run(os.Args, cli.DefaultEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", tool, err)
		os.Exit(1)
	}
}

type options struct {
	in       string
	out      string
	privFile string
	verbose  bool
	help     bool
}

func usage(env cli.Env) {
	cli.Usage(env.Stdout, tool, []string{
		"Decrypts data using SS encryption.",
		"Data is encrypted by the encrypt program.",
	}, []cli.Option{
		{Flag: "-h", Desc: "Display program help and usage."},
		{Flag: "-v", Desc: "Display verbose program output."},
		{Flag: "-i infile", Desc: "Input file of data to decrypt (default: stdin)."},
		{Flag: "-o outfile", Desc: "Output file for decrypted data (default: stdout)."},
		{Flag: "-n pvfile", Desc: "Private key file (default: ss.priv)."},
	})
}

func run(args []string, env cli.Env) error {
	cfg, cfgErr := cli.LoadConfig(env)

	var opts options
	fs := cli.NewFlagSet(tool, env.Stderr)
	fs.Usage = func() { usage(env) }
	fs.StringVar(&opts.in, "i", "", "input file")
	fs.StringVar(&opts.out, "o", "", "output file")
	fs.StringVar(&opts.privFile, "n", cfg.PrivateKeyFile, "private key file")
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
	return decrypt(context.Background(), env, log, opts)
}

func decrypt(ctx context.Context, env cli.Env, log logging.Logger, opts options) error {
	priv, err := keyfile.LoadPrivateKey(opts.privFile, env.Getenv(cli.EnvPassphrase))
	if err != nil {
		return err
	}

	if opts.verbose {
		cli.Report(env.Stderr, "pq", priv.PQ)
		cli.Report(env.Stderr, "d", priv.D)
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

	log.Debug(ctx, "decrypting", "pq_bits", priv.PQ.BitLen(), logging.Redacted("d"))
	if err := ss.DecryptStream(in, out, priv); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("%w: %w", keyfile.ErrIOFailure, err)
	}
	return nil
}
