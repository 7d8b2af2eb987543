// Command keygen generates a Schmidt-Samoa key pair and writes the public
// and private key files.
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
	"github.com/bitfsorg/libss-go/randstate"
	"github.com/bitfsorg/libss-go/ss"
)

const tool = "keygen"

func main() {
	if err := run(os.Args, cli.DefaultEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", tool, err)
		os.Exit(1)
	}
}

type options struct {
	bits     int
	iters    int
	pubFile  string
	privFile string
	seed     uint64
	keyring  string
	owner    string
	seal     bool
	verbose  bool
	help     bool
}

func usage(env cli.Env) {
	cli.Usage(env.Stdout, tool, []string{"Generates an SS public/private key pair."}, []cli.Option{
		{Flag: "-h", Desc: "Display program help and usage."},
		{Flag: "-v", Desc: "Display verbose program output."},
		{Flag: "-b bits", Desc: "Minimum bits needed for public key n (default: 256)."},
		{Flag: "-i iterations", Desc: "Miller-Rabin iterations for testing primes (default: 50)."},
		{Flag: "-n pbfile", Desc: "Public key file (default: ss.pub)."},
		{Flag: "-d pvfile", Desc: "Private key file (default: ss.priv)."},
		{Flag: "-s seed", Desc: "Random seed for testing (default: current time)."},
		{Flag: "-k keyring", Desc: "Also register the public key in this keyring."},
		{Flag: "-u owner", Desc: "Owner recorded with the public key (default: current user)."},
		{Flag: "-p", Desc: "Seal the private key with $SS_PASSPHRASE."},
	})
}

func run(args []string, env cli.Env) error {
	cfg, cfgErr := cli.LoadConfig(env)

	var opts options
	fs := cli.NewFlagSet(tool, env.Stderr)
	fs.Usage = func() { usage(env) }
	fs.IntVar(&opts.bits, "b", cfg.Bits, "minimum bits of n")
	fs.IntVar(&opts.iters, "i", cfg.Iters, "Miller-Rabin iterations")
	fs.StringVar(&opts.pubFile, "n", cfg.PublicKeyFile, "public key file")
	fs.StringVar(&opts.privFile, "d", cfg.PrivateKeyFile, "private key file")
	fs.Uint64Var(&opts.seed, "s", uint64(env.Now().Unix()), "random seed")
	fs.StringVar(&opts.keyring, "k", cfg.KeyringFile, "keyring file")
	fs.StringVar(&opts.owner, "u", "", "key owner")
	fs.BoolVar(&opts.seal, "p", false, "seal the private key")
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
	opts.owner = cli.Owner(env, opts.owner)
	if err := keyfile.ValidateOwner(opts.owner); err != nil {
		return err
	}

	log, err := cli.NewLogger(env, cfg, tool, opts.verbose)
	if err != nil {
		return err
	}
	return generate(context.Background(), env, log, opts)
}

func generate(ctx context.Context, env cli.Env, log logging.Logger, opts options) error {
	var passphrase string
	if opts.seal {
		passphrase = env.Getenv(cli.EnvPassphrase)
		if passphrase == "" {
			return fmt.Errorf("%w: set %s", keyfile.ErrPassphraseRequired, cli.EnvPassphrase)
		}
	}

	src := randstate.New(opts.seed)
	defer src.Close()

	log.Debug(ctx, "generating key pair", "bits", opts.bits, "iters", opts.iters, "seed", opts.seed)
	kp, stats, err := ss.GenerateKeyPair(opts.bits, opts.iters, src)
	if err != nil {
		return err
	}
	log.Debug(ctx, "key pair generated",
		"n_bits", kp.N.BitLen(),
		"prime_attempts", stats.PrimeAttempts,
		"rejections", stats.Rejections,
		logging.Redacted("d"),
	)

	pub := kp.Public(opts.owner)
	if err := keyfile.SaveKeyPair(opts.pubFile, opts.privFile, pub, kp.Private(), passphrase, keyfile.DefaultKDFParams); err != nil {
		return err
	}
	log.Debug(ctx, "keys written", "pubfile", opts.pubFile, "privfile", opts.privFile, "sealed", opts.seal)

	if opts.keyring != "" {
		if err := register(ctx, log, opts.keyring, pub); err != nil {
			return err
		}
	}

	if opts.verbose {
		fmt.Fprintf(env.Stderr, "user = %s\n", opts.owner)
		cli.Report(env.Stderr, "p", kp.P)
		cli.Report(env.Stderr, "q", kp.Q)
		cli.Report(env.Stderr, "n", kp.N)
		cli.Report(env.Stderr, "pq", kp.PQ)
		cli.Report(env.Stderr, "d", kp.D)
	}
	return nil
}

func register(ctx context.Context, log logging.Logger, path string, pub *ss.PublicKey) error {
	kr, err := keyring.Open(path)
	if err != nil {
		return err
	}
	defer kr.Close()

	rec, err := kr.Put(pub)
	if err != nil {
		return err
	}
	log.Info(ctx, "registered public key", "owner", rec.Owner, "fingerprint", rec.Fingerprint, "keyring", path)
	return nil
}
