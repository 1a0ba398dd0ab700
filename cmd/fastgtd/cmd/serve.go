package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bkarjoo/fastgtd-sub000/internal/core/api"
	"github.com/bkarjoo/fastgtd-sub000/internal/core/db"
	"github.com/bkarjoo/fastgtd-sub000/internal/core/server"
	"github.com/bkarjoo/fastgtd-sub000/internal/core/service"
	"github.com/bkarjoo/fastgtd-sub000/internal/core/store"
	"github.com/bkarjoo/fastgtd-sub000/internal/rules"
)

const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the smart folder HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "HTTP server host")
	serveCmd.Flags().Int("port", 0, "HTTP server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	log := newLogger(cfg)

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	queries, err := store.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	nodeStore := store.NewNodeStore(queries)
	ruleStore := store.NewRuleStore(queries)
	loader := store.NewLoader(nodeStore)
	engine := rules.NewEngine(ruleStore).WithLogger(log)

	folders := service.New(nodeStore, loader, ruleStore, engine, log)
	ruleSvc := service.NewRuleService(ruleStore)

	handlers := api.NewHandlers(folders, ruleSvc, log)
	srv, err := server.NewHTTPServer(cfg, handlers, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("starting fastgtd", "version", Version, "addr", cfg.Addr())
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())
		return srv.Shutdown(context.Background())
	}
}
