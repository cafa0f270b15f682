package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/minecom/minedash/internal/api"
	"github.com/minecom/minedash/internal/database"
	"github.com/minecom/minedash/internal/scheduler"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Minedash server",
	Long:  `Start the Minedash server serving the dashboard views over HTTP.`,
	Example: `minedash serve --config config.yml
minedash serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	sched, err := scheduler.New()
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}

	server, err := api.New(cfg, db, sched, log.GetLevel() == log.DebugLevel)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()

	go func() {
		log.Info("starting API server", "listen", cfg.Listen, "strapi", cfg.Strapi.URL)
		if err := server.Run(); err != nil {
			log.Error("API server error", "error", err)
			stop()
		}
	}()

	log.Info("minedash started successfully")
	<-ctx.Done()
	log.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down API server", "error", err)
	}
	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler", "error", err)
	}
}
