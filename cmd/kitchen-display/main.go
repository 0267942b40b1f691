package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"kitchen_console/internal/config"
	"kitchen_console/internal/display"
	"kitchen_console/internal/refresh"
	"kitchen_console/pkg/kitchenapi"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		apiURL  string
		view    string
		logFile string
	)
	flagSet := pflag.NewFlagSet("kitchen-display", pflag.ContinueOnError)
	flagSet.StringVar(&apiURL, "api-url", cfg.APIURL, "kitchen API base URL")
	flagSet.StringVar(&view, "view", string(refresh.ViewFlat), "initial view: flat or grouped")
	flagSet.StringVar(&logFile, "log-file", "", "write JSON log records to this file")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	viewMode, err := refresh.ParseViewMode(view)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var logOutput io.Writer = io.Discard
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", logFile, err)
		}
		defer file.Close()
		logOutput = file
	}
	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := kitchenapi.NewClient(apiURL, cfg.HTTPTimeout)
	bridge := &display.ProgramBridge{}

	controller := refresh.NewController(client, viewMode, refresh.Options{
		Logger:   logger,
		Notifier: bridge,
		OnChange: bridge.Changed,
	})
	actions := display.NewActions(client, bridge, logger)

	program := tea.NewProgram(display.NewModel(ctx, controller, actions), tea.WithAltScreen())
	bridge.SetProgram(program)

	logger.Info("kitchen display starting", "api_url", apiURL, "view", viewMode)
	_, err = program.Run()
	controller.Unmount()
	return err
}
