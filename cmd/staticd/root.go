package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/LulzSec6824/StaticServer/internal/config"
	"github.com/LulzSec6824/StaticServer/internal/server"
)

type rootCommand struct {
	configPath   string
	port         int
	root         string
	maxClients   int
	readTimeout  time.Duration
	writeTimeout time.Duration
	noColor      bool
}

func newRootCommand() *cobra.Command {
	return (&rootCommand{}).command()
}

func (c *rootCommand) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staticd [port] [root]",
		Short: "Serve static files from a directory",
		Long: `staticd answers one GET request per connection with the contents of a
file below the root directory. Settings are taken from the defaults, then the
config file, then STATICD_PORT/PORT and STATICD_ROOT, then flags and arguments.`,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE:         c.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&c.configPath, "config", "c", "", "TOML or YAML config file")
	flags.IntVarP(&c.port, "port", "p", config.DefaultPort, "port to listen on")
	flags.StringVarP(&c.root, "root", "r", config.DefaultRootDirectory, "directory to serve")
	flags.IntVar(&c.maxClients, "max-clients", config.DefaultMaxClients, "connections handled at the same time")
	flags.DurationVar(&c.readTimeout, "read-timeout", config.DefaultReadTimeout, "deadline for reading a request")
	flags.DurationVar(&c.writeTimeout, "write-timeout", config.DefaultWriteTimeout, "deadline for writing a response")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	return cmd
}

// buildConfig layers defaults, config file, environment, flags and positional
// arguments, in that order.
func (c *rootCommand) buildConfig(cmd *cobra.Command, args []string, lookup func(string) (string, bool)) (config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = c.port
	}
	if flags.Changed("root") {
		cfg.RootDirectory = c.root
	}
	if flags.Changed("max-clients") {
		cfg.MaxClients = c.maxClients
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = c.readTimeout
	}
	if flags.Changed("write-timeout") {
		cfg.WriteTimeout = c.writeTimeout
	}

	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return cfg, fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		cfg.Port = port
	}
	if len(args) > 1 {
		cfg.RootDirectory = args[1]
	}

	cfg.Normalize()
	return cfg, nil
}

func (c *rootCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := c.buildConfig(cmd, args, os.LookupEnv)
	if err != nil {
		return err
	}

	printBanner(cmd.OutOrStdout(), cfg, !c.noColor)

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Shutdown grace period exceeded: %v", err)
			return nil
		}
		return err
	}
	return nil
}

// printBanner announces the port and root. Color is only used on a terminal.
func printBanner(w io.Writer, cfg config.Config, useColor bool) {
	if f, ok := w.(*os.File); !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		useColor = false
	}

	title := color.New(color.FgGreen, color.Bold)
	detail := color.New(color.FgCyan)
	hint := color.New(color.Faint)
	if !useColor {
		title.DisableColor()
		detail.DisableColor()
		hint.DisableColor()
	}

	title.Fprintf(w, "Starting static file server on port %d\n", cfg.Port)
	detail.Fprintf(w, "Serving files from: %s\n", cfg.RootDirectory)
	hint.Fprintln(w, "Press Ctrl+C to stop")
}
