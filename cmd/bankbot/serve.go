package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/banktrust/bankbot/internal/config"
	"github.com/banktrust/bankbot/internal/db"
	"github.com/banktrust/bankbot/internal/dialog"
	"github.com/banktrust/bankbot/internal/ledger"
	"github.com/banktrust/bankbot/internal/metrics"
	"github.com/banktrust/bankbot/internal/nlu"
	"github.com/banktrust/bankbot/internal/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant HTTP server",
		Long:  "Opens the database, trains the fallback classifier, and serves the chat API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	return cmd
}

// loadConfig reads the config file, falling back to defaults when the file
// does not exist. A .env file, if present, is loaded first so it can feed
// the admin credential overrides.
func loadConfig(path string) (*config.Config, error) {
	godotenv.Load()

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	gormDB, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	store, err := ledger.NewStore(gormDB)
	if err != nil {
		return err
	}

	classifier, err := nlu.NewClassifier(nlu.ClassifierOpts{
		CorpusPath:  cfg.Classifier.CorpusPath,
		MaxFeatures: cfg.Classifier.MaxFeatures,
	})
	if err != nil {
		return err
	}
	if ok, detail := classifier.Retrain(); ok {
		fmt.Fprintf(out, "Classifier trained: %s\n", detail)
	} else {
		// The rule cascade and FAQ lookup still work without a model.
		fmt.Fprintf(out, "Classifier not trained: %s\n", detail)
	}

	engine, err := dialog.NewEngine(dialog.EngineOpts{
		Ledger:        store,
		FAQs:          store,
		Classifier:    classifier,
		Lending:       cfg.Lending,
		MinConfidence: cfg.Classifier.MinConfidence,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduled retrains pick up corpus rows added through the admin API.
	if expr := cfg.Classifier.RetrainCron; expr != "" {
		c := cron.New()
		_, err := c.AddFunc(expr, func() {
			ok, detail := classifier.Retrain()
			outcome := "success"
			if !ok {
				outcome = "failure"
			}
			metrics.Retrains.WithLabelValues(outcome).Inc()
			log.Printf("serve: scheduled retrain (%s): %s", outcome, detail)
		})
		if err != nil {
			return fmt.Errorf("serve: retrain cron %q: %w", expr, err)
		}
		c.Start()
		defer c.Stop()
		fmt.Fprintf(out, "Scheduled retrain: %s\n", expr)
	}

	return server.Start(ctx, server.StartOpts{
		Store:      store,
		Engine:     engine,
		Classifier: classifier,
		Config:     cfg,
		Out:        out,
	})
}
