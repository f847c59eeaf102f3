package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mini-jira/internal/api"
	"github.com/nhle/mini-jira/internal/app"
	"github.com/nhle/mini-jira/internal/model"
	"github.com/nhle/mini-jira/internal/session"
	"github.com/nhle/mini-jira/internal/store"
	appsync "github.com/nhle/mini-jira/internal/sync"
)

func main() {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	tokens, err := session.Open()
	if err != nil {
		log.Fatalf("session store: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
		log.Fatalf("cache directory: %v", err)
	}
	cache, err := store.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer cache.Close()

	client := api.NewClient(
		cfg.API.BaseURL,
		tokens,
		time.Duration(cfg.API.TimeoutSec)*time.Second,
	)

	poller := appsync.New(
		client,
		cache,
		time.Duration(cfg.Display.PollIntervalSec)*time.Second,
	)

	program := tea.NewProgram(
		app.New(client, tokens, cache, poller),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mini-jira: %v\n", err)
		os.Exit(1)
	}
}
