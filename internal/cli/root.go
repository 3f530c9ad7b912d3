// Package cli implements taskctl, a terminal front end for the task board.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/chepyr/go-task-board/internal/config"
	"github.com/chepyr/go-task-board/internal/logger"
	"github.com/chepyr/go-task-board/internal/storeclient"
	"github.com/chepyr/go-task-board/internal/taskclient"
	"github.com/spf13/cobra"
)

type app struct {
	cfg        config.CLI
	configPath string
	verbose    bool
	log        *slog.Logger
	store      *storeclient.Client
	tasks      *taskclient.Client
}

func NewRootCmd(version string) *cobra.Command {
	a := &app{}
	var storeURL, gatewayURL, sessionFile string

	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage your task board from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(a.configPath, &a.cfg); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("store-url") {
				a.cfg.StoreURL = storeURL
			}
			if flags.Changed("gateway-url") {
				a.cfg.GatewayURL = gatewayURL
			}
			if flags.Changed("session") {
				a.cfg.SessionFile = sessionFile
			}
			return a.init()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&storeURL, "store-url", "", "task store base URL")
	pf.StringVar(&gatewayURL, "gateway-url", "", "create-task gateway URL")
	pf.StringVar(&sessionFile, "session", "", "file holding the signed-in session")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log requests and failures to stderr")

	root.AddCommand(
		signUpCmd(a),
		signInCmd(a),
		signOutCmd(a),
		whoamiCmd(a),
		listCmd(a),
		addCmd(a),
		statusCmd(a),
		doneCmd(a),
		reopenCmd(a),
		editCmd(a),
		removeCmd(a),
	)
	return root
}

// Execute runs taskctl and returns the process exit code.
func Execute(version string) int {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) init() error {
	if a.verbose {
		log, err := logger.New(logger.Config{Level: "DEBUG"})
		if err != nil {
			return err
		}
		a.log = log
	} else {
		a.log = logger.Discard()
	}

	if a.cfg.SessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("locate config dir: %w", err)
		}
		a.cfg.SessionFile = filepath.Join(dir, "taskctl", "session.json")
	}

	hc := &http.Client{Timeout: a.cfg.Timeout}
	store, err := storeclient.New(a.cfg.StoreURL, "", storeclient.WithHTTPClient(hc))
	if err != nil {
		return err
	}
	a.store = store
	a.tasks = taskclient.New(store, taskclient.NewGatewayClient(a.cfg.GatewayURL, hc), a.log)
	return nil
}

func (a *app) context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
