package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/healthbell/healthbell/internal/api"
	"github.com/healthbell/healthbell/internal/app"
	"github.com/healthbell/healthbell/internal/credential"
	"github.com/healthbell/healthbell/internal/logging"
	"github.com/healthbell/healthbell/internal/model"
	"github.com/healthbell/healthbell/internal/store"
	appsync "github.com/healthbell/healthbell/internal/sync"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	// "healthbell set-token" stores the backend bearer token in the
	// system keyring so it never lives in the config file.
	if flag.Arg(0) == "set-token" {
		if err := runSetToken(flag.Arg(1)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("token stored")
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	token, err := loadToken()
	if err != nil {
		return fmt.Errorf(
			"no API token found; run `healthbell set-token <token>` "+
				"or set HEALTHBELL_TOKEN: %w", err,
		)
	}

	client := api.NewClient(
		cfg.Server.BaseURL,
		token,
		time.Duration(cfg.Server.TimeoutSec)*time.Second,
	)

	s, err := store.NewSQLiteStore(cachePath())
	if err != nil {
		return err
	}
	defer s.Close()

	poller := appsync.New(
		client, s,
		time.Duration(cfg.Notifications.PollIntervalSec)*time.Second,
	)

	log.WithField("server", cfg.Server.BaseURL).Info("starting")

	program := tea.NewProgram(
		app.New(client, s, poller, cfg),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	log.Info("shutting down")
	return nil
}

// loadToken prefers the environment variable, then the system keyring.
func loadToken() (string, error) {
	if token := os.Getenv("HEALTHBELL_TOKEN"); token != "" {
		return token, nil
	}
	return credential.Get(credential.TokenKey)
}

// runSetToken stores the given token in the system keyring.
func runSetToken(token string) error {
	if token == "" {
		return fmt.Errorf("usage: healthbell set-token <token>")
	}
	return credential.Set(credential.TokenKey, token)
}

// cachePath returns the location of the local notification cache.
func cachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "healthbell.db")
	}
	return filepath.Join(home, ".config", "healthbell", "cache.db")
}
