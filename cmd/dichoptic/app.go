package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/redmonkez12/dichoptic/cmd/dichoptic/ui"
	"github.com/redmonkez12/dichoptic/internal/client"
	"github.com/redmonkez12/dichoptic/internal/logging"
)

const (
	defaultAPIURL  = "http://localhost:3001"
	defaultTimeout = 10 * time.Second
)

// app carries the client shared by every subcommand
type app struct {
	client *client.Client
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	apiURL, _ := cmd.Flags().GetString("api-url")
	if apiURL == "" {
		apiURL = getEnv("DICHOPTIC_API_URL", defaultAPIURL)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		t, err := envDuration("DICHOPTIC_TIMEOUT", defaultTimeout)
		if err != nil {
			return err
		}
		timeout = t
	}

	path, _ := cmd.Flags().GetString("session-file")
	if path == "" {
		p, err := client.DefaultTokenPath()
		if err != nil {
			return err
		}
		path = p
	}

	debug, _ := cmd.Flags().GetBool("debug")
	logger := logging.Discard()
	if debug {
		logger = logging.NewWithHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	session := client.NewSession(client.NewFileTokenStore(path))
	if err := session.Hydrate(); err != nil {
		return err
	}

	events := client.NewEvents()
	events.Subscribe(func(ev client.SessionEnded) {
		if ev.Reason != client.ReasonLogout {
			ui.PrintNotice("Your session has ended. Run `dichoptic login` to sign in again.")
		}
	})

	// signed-out settings live beside the session file
	local := client.NewFileSettingsStore(filepath.Join(filepath.Dir(path), "settings.json"))

	a.client = client.New(client.Config{BaseURL: apiURL, Timeout: timeout, LocalSettings: local}, session, events, logger)
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDuration accepts a Go duration ("15s") or a number of seconds
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return time.Duration(secs) * time.Second, nil
}

// fail prints err and returns it so cobra exits non-zero
func fail(err error) error {
	ui.PrintError(err.Error())
	return err
}
