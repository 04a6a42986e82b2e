package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/cmp-ia/pkg/store"
	"github.com/urfave/cli/v2"
)

// default output of the commands, replaced in tests.
var output io.Writer = os.Stdout

// Set through -ldflags "-X main.version=..."
var version = "master"

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Value:   defaultConfigFile,
	Usage:   "Path of the toml configuration file.",
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "If set, verbosity is at the debug level.",
}

var nameFlag = &cli.StringFlag{
	Name:     "name",
	Required: true,
	Usage:    "Name under which the key is stored.",
}

var partiesFlag = &cli.StringSliceFlag{
	Name:     "parties",
	Required: true,
	Usage:    "Comma separated identity names of the participants.",
}

var thresholdFlag = &cli.IntFlag{
	Name:     "threshold",
	Required: true,
	Usage:    "Maximum number of corrupted parties. Any threshold+1 parties can sign.",
}

var appCommands = []*cli.Command{
	{
		Name:  "config",
		Usage: "Manage the configuration file.",
		Subcommands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write a default configuration file at the --config path.",
				Action: configInitCmd,
			},
		},
	},
	{
		Name:  "identity",
		Usage: "Manage local party identities.",
		Subcommands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "Create a new identity key.",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{&cli.StringFlag{
					Name:  "seed",
					Usage: "Hex seed of at least 16 bytes, to derive the key deterministically.",
				}},
				Action: identityNewCmd,
			},
			{
				Name:   "list",
				Usage:  "List the local identities and their party IDs.",
				Action: identityListCmd,
			},
		},
	},
	{
		Name:   "keyinit",
		Usage:  "Generate a new threshold key between --parties.",
		Flags:  []cli.Flag{nameFlag, partiesFlag, thresholdFlag},
		Action: keyInitCmd,
	},
	{
		Name:   "refresh",
		Usage:  "Refresh the shares of the key --name.",
		Flags:  []cli.Flag{nameFlag},
		Action: refreshCmd,
	},
	{
		Name:   "auxgen",
		Usage:  "Generate the Paillier and Pedersen material of --parties.",
		Flags:  []cli.Flag{nameFlag, partiesFlag},
		Action: auxGenCmd,
	},
	{
		Name:  "sign",
		Usage: "Sign a message with the key --name.",
		Flags: []cli.Flag{
			nameFlag,
			&cli.StringSliceFlag{Name: "signers", Required: true, Usage: "Identity names of the signers."},
			&cli.StringFlag{Name: "message", Usage: "Message to sign, hashed with SHA-256."},
			&cli.StringFlag{Name: "hash", Usage: "Hex 32 byte prehashed message to sign."},
		},
		Action: signCmd,
	},
	{
		Name:  "reshare",
		Usage: "Move the key --name from --old holders to --new holders.",
		Flags: []cli.Flag{
			nameFlag,
			&cli.StringSliceFlag{Name: "old", Required: true, Usage: "Identity names of the dealing holders."},
			&cli.StringSliceFlag{Name: "new", Required: true, Usage: "Identity names of the new holders."},
			thresholdFlag,
			&cli.StringFlag{Name: "to", Usage: "Name under which the new shares are stored. Defaults to --name."},
		},
		Action: reshareCmd,
	},
	{
		Name:  "evidence",
		Usage: "Inspect the evidence gathered from failed executions.",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the stored evidence.",
				Action: evidenceListCmd,
			},
			{
				Name:      "verify",
				Usage:     "Check a stored evidence bundle, or one read from a file with --file.",
				ArgsUsage: "[key]",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "file", Usage: "File holding a cbor encoded bundle."}},
				Action:    evidenceVerifyCmd,
			},
		},
	},
}

// CLI returns the cmp-ia application.
func CLI() *cli.App {
	app := cli.NewApp()
	app.Name = "cmp-ia"
	app.Version = version
	app.Usage = "threshold ECDSA with identifiable aborts"
	app.Commands = appCommands
	app.Flags = []cli.Flag{configFlag, verboseFlag}
	return app
}

// env bundles what every command needs.
type env struct {
	conf  *Config
	log   zerolog.Logger
	store *store.Store
}

// openEnv loads the configuration and opens the store. The caller must close it.
func openEnv(c *cli.Context) (*env, error) {
	return newEnv(c.String(configFlag.Name), c.App.ErrWriter, c.Bool(verboseFlag.Name))
}

func newEnv(configPath string, logOutput io.Writer, verbose bool) (*env, error) {
	conf, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := conf.Logger(logOutput, verbose)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(conf.StorePath)
	if err != nil {
		return nil, err
	}
	return &env{conf: conf, log: log, store: s}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

func configInitCmd(c *cli.Context) error {
	path := c.String(configFlag.Name)
	if err := DefaultConfig(dirOf(path)).Save(path); err != nil {
		return err
	}
	fmt.Fprintf(output, "configuration written to %s\n", path)
	return nil
}

func identityNewCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("identity new takes exactly one name")
	}
	conf, err := LoadConfig(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	var seed []byte
	if s := c.String("seed"); s != "" {
		if seed, err = decodeHex(s); err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
	}
	signer, err := newIdentity(conf.IdentityDir, c.Args().First(), seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "%s %s\n", c.Args().First(), signer.ID())
	return nil
}

func identityListCmd(c *cli.Context) error {
	conf, err := LoadConfig(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	names, err := listIdentities(conf.IdentityDir)
	if err != nil {
		return err
	}
	for _, name := range names {
		s, err := loadIdentity(conf.IdentityDir, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "%s %s\n", name, s.ID())
	}
	return nil
}

// names splits the values of a slice flag, which may also be comma separated inside one value.
func names(c *cli.Context, flag string) []string {
	var out []string
	for _, v := range c.StringSlice(flag) {
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				out = append(out, n)
			}
		}
	}
	return out
}
