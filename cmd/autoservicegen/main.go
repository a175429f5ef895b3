package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	config  string
	out     string
	prefix  string
	verbose bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "autoservicegen",
		Short: "Generate autoservice registration tables for marked types",
		Long: `autoservicegen reads Go packages, finds structs carrying an autoservice.Service
marker and writes an init() that registers them with autoservice's default
catalog, along with compile-time checks that each type implements the
interface it is bound to.

Packages are given as arguments or listed in an autoservice.yaml manifest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.config, "config", "", "path to the manifest (default ./"+defaultConfigFile+" when present)")
	flags.StringVar(&opts.out, "out", "", "generated file name (default "+defaultOutput+")")
	flags.StringVar(&opts.prefix, "prefix", "", "interface name prefix for the naming convention (default "+defaultPrefix+")")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log what the generator does")

	root.AddCommand(newGenerateCommand(opts), newCheckCommand(opts))
	return root
}

func newGenerateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate [dir...]",
		Short: "Write registration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(cmd, opts, args)
			if err != nil {
				return err
			}
			defer func() { _ = g.logger.Sync() }()

			out := cmd.OutOrStdout()
			for _, dir := range g.cfg.Packages {
				res, err := g.generate(dir)
				if err != nil {
					return err
				}
				switch {
				case res.Services == 0 && res.Changed:
					fmt.Fprintln(out, color.YellowString("removed"), filepath.ToSlash(res.Path))
				case res.Services == 0:
					fmt.Fprintln(out, color.YellowString("skipped"), filepath.ToSlash(dir), "(no marked types)")
				case res.Changed:
					fmt.Fprintln(out, color.GreenString("wrote"), filepath.ToSlash(res.Path), servicesLabel(res.Services))
				default:
					fmt.Fprintln(out, color.HiBlackString("unchanged"), filepath.ToSlash(res.Path))
				}
			}
			return nil
		},
	}
}

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir...]",
		Short: "Fail when a registration file is missing or out of date",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(cmd, opts, args)
			if err != nil {
				return err
			}
			defer func() { _ = g.logger.Sync() }()

			out := cmd.OutOrStdout()
			stale := 0
			for _, dir := range g.cfg.Packages {
				res, err := g.check(dir)
				if err != nil {
					return err
				}
				if res.Changed {
					stale++
					fmt.Fprintln(out, color.RedString("stale"), filepath.ToSlash(res.Path))
					continue
				}
				fmt.Fprintln(out, color.GreenString("ok"), filepath.ToSlash(res.Path))
			}
			if stale > 0 {
				return &cmdError{msg: strconv.Itoa(stale) + " registration file(s) out of date, run autoservicegen generate"}
			}
			return nil
		},
	}
}

// newGenerator merges the manifest, positional directories and flags.
// Directories on the command line replace the manifest's package list.
func newGenerator(cmd *cobra.Command, opts *options, dirs []string) (*generator, error) {
	cfg := &Config{}

	path := opts.config
	if path == "" && len(dirs) == 0 && fileExists(defaultConfigFile) {
		path = defaultConfigFile
	}
	if path != "" {
		loaded, err := loadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(dirs) > 0 {
		cfg.Packages = dirs
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = []string{"."}
	}
	if cmd.Flags().Changed("out") {
		cfg.Output = opts.out
	}
	if cmd.Flags().Changed("prefix") {
		cfg.Prefix = opts.prefix
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if opts.verbose {
		logger = newLogger(cmd.ErrOrStderr())
	}
	logger.Debug("configuration",
		zap.String("manifest", path),
		zap.String("output", cfg.Output),
		zap.String("prefix", cfg.Prefix),
		zap.Strings("packages", cfg.Packages),
	)

	return &generator{cfg: cfg, logger: logger}, nil
}

func newLogger(w io.Writer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if color.NoColor {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}

func servicesLabel(n int) string {
	if n == 1 {
		return "(1 service)"
	}
	return "(" + strconv.Itoa(n) + " services)"
}
