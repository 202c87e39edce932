package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/banktrust/bankbot/internal/db"
	"github.com/banktrust/bankbot/internal/dialog"
	"github.com/banktrust/bankbot/internal/ledger"
	"github.com/banktrust/bankbot/internal/models"
	"github.com/banktrust/bankbot/internal/nlu"
)

func newChatCmd() *cobra.Command {
	var (
		configPath string
		email      string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Long:  "Starts an interactive session against the local database. Log in with --email; the password is read without echo.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, configPath, email)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email to log in with")
	return cmd
}

func runChat(cmd *cobra.Command, configPath, email string) error {
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
	if ok, detail := classifier.Retrain(); !ok {
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

	session := dialog.NewSession()
	reader := bufio.NewScanner(cmd.InOrStdin())

	if email != "" {
		user, err := loginPrompt(cmd, reader, store, email)
		if err != nil {
			return err
		}
		session.CurrentUserAccount = user.AccountNumber
		fmt.Fprintf(out, "Logged in as %s (account %s).\n", user.Name, user.AccountNumber)
	} else {
		fmt.Fprintln(out, "Anonymous session: transfers and balance checks are unavailable.")
	}

	fmt.Fprintln(out, "Bank of Trust assistant. Type 'exit' to quit.")
	for {
		fmt.Fprint(out, "> ")
		if !reader.Scan() {
			fmt.Fprintln(out)
			return reader.Err()
		}
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}

		result := engine.HandleMessage(session, line)
		fmt.Fprintln(out, result.Response)

		if err := store.SaveChat(models.ChatLog{
			Account:     session.CurrentUserAccount,
			UserMessage: line,
			BotResponse: result.Response,
			Intent:      result.Intent,
			Confidence:  result.Confidence,
			IsFallback:  result.Intent == "fallback",
		}); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not log chat: %v\n", err)
		}
	}
}

// loginPrompt reads the password without echo when stdin is a terminal, and
// verifies the credentials against the users table. Non-terminal input is
// read from the shared scanner so the REPL loop keeps its place.
func loginPrompt(cmd *cobra.Command, reader *bufio.Scanner, store *ledger.Store, email string) (*models.User, error) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Password for %s: ", email)

	var password string
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	} else {
		if !reader.Scan() {
			return nil, fmt.Errorf("read password: %w", reader.Err())
		}
		password = strings.TrimSpace(reader.Text())
	}

	user, err := store.VerifyLogin(email, password)
	if err != nil {
		return nil, fmt.Errorf("login failed for %s", email)
	}
	return user, nil
}
