package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banktrust/bankbot/internal/nlu"
)

func newRetrainCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Train the fallback classifier from the corpus",
		Long:  "Loads the labeled training corpus and fits the classifier once, reporting the model summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetrain(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	return cmd
}

func runRetrain(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
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

	ok, detail := classifier.Retrain()
	if !ok {
		return fmt.Errorf("retrain: %s", detail)
	}
	fmt.Fprintf(out, "Classifier trained: %s\n", detail)
	return nil
}
