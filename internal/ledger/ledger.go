// Package ledger implements the persistence collaborators the dialog engine
// depends on: account balances, users, transactions, chat logs, and the FAQ
// knowledge base.
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banktrust/bankbot/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("ledger: not found")

// Store wraps a GORM connection with the assistant's data operations.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("ledger: store: db is required")
	}
	return &Store{db: db}, nil
}

// GetUser looks up a user by account number.
func (s *Store) GetUser(account string) (*models.User, error) {
	var user models.User
	err := s.db.Where("account_number = ?", account).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get user %s: %w", account, err)
	}
	return &user, nil
}

// GetBalance returns the balance for an account, or ErrNotFound.
func (s *Store) GetBalance(account string) (int64, error) {
	user, err := s.GetUser(account)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

// UpdateBalance sets the balance for an account.
func (s *Store) UpdateBalance(account string, newBalance int64) error {
	result := s.db.Model(&models.User{}).
		Where("account_number = ?", account).
		Update("balance", newBalance)
	if result.Error != nil {
		return fmt.Errorf("ledger: update balance %s: %w", account, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordTransaction appends a transfer record.
func (s *Store) RecordTransaction(txn models.Transaction) error {
	if err := s.db.Create(&txn).Error; err != nil {
		return fmt.Errorf("ledger: record transaction: %w", err)
	}
	return nil
}

// TransactionEntry is one row of a user-facing transaction history.
type TransactionEntry struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
	Mode   string `json:"mode"`
	Status string `json:"status"`
}

// Transactions returns the sent/received history for an account, newest first,
// with direction labels resolved against the users table.
func (s *Store) Transactions(account string) ([]TransactionEntry, error) {
	var txns []models.Transaction
	err := s.db.
		Where("sender_account = ? OR receiver_account = ?", account, account).
		Order("id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: transactions for %s: %w", account, err)
	}

	entries := make([]TransactionEntry, 0, len(txns))
	for _, t := range txns {
		var kind string
		if t.SenderAccount == account {
			kind = "Sent to " + t.ReceiverName
		} else {
			senderName := "Unknown"
			if sender, err := s.GetUser(t.SenderAccount); err == nil {
				senderName = sender.Name
			}
			kind = "Received from " + senderName
		}
		entries = append(entries, TransactionEntry{
			Date:   t.CreatedAt.Format("2006-01-02 15:04:05"),
			Type:   kind,
			Amount: t.Amount,
			Mode:   t.Mode,
			Status: t.Status,
		})
	}
	return entries, nil
}

// VerifyLogin checks email/password credentials and returns the user on match.
func (s *Store) VerifyLogin(email, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ? AND password = ?", email, password).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: verify login: %w", err)
	}
	return &user, nil
}

// SaveChat stores one handled message with its routing metadata.
func (s *Store) SaveChat(entry models.ChatLog) error {
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("ledger: save chat: %w", err)
	}
	return nil
}

// ChatHistory returns the chat log for one account, newest first.
func (s *Store) ChatHistory(account string, limit int) ([]models.ChatLog, error) {
	var logs []models.ChatLog
	q := s.db.Where("account = ?", account).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("ledger: chat history for %s: %w", account, err)
	}
	return logs, nil
}

// AllChats returns the full chat log, newest first, capped at limit when > 0.
func (s *Store) AllChats(limit int) ([]models.ChatLog, error) {
	var logs []models.ChatLog
	q := s.db.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("ledger: all chats: %w", err)
	}
	return logs, nil
}

// IntentCount pairs an intent label with its occurrence count.
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int64  `json:"count"`
}

// AnalyticsStats summarizes chat-log analytics for the admin dashboard.
type AnalyticsStats struct {
	TotalQueries int64         `json:"total"`
	SuccessRate  float64       `json:"success_rate"`
	TopIntents   []IntentCount `json:"top_intents"`
}

// successConfidence is the analytics threshold above which a non-fallback
// answer counts as successful.
const successConfidence = 0.65

// Analytics computes dashboard statistics over the chat log.
func (s *Store) Analytics() (*AnalyticsStats, error) {
	var total int64
	if err := s.db.Model(&models.ChatLog{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("ledger: analytics total: %w", err)
	}

	var successful int64
	err := s.db.Model(&models.ChatLog{}).
		Where("confidence > ? AND is_fallback = ?", successConfidence, false).
		Count(&successful).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: analytics success: %w", err)
	}

	var top []IntentCount
	err = s.db.Model(&models.ChatLog{}).
		Select("intent as intent, COUNT(*) as count").
		Where("intent != '' AND intent != 'fallback'").
		Group("intent").
		Order("count DESC").
		Limit(5).
		Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: analytics top intents: %w", err)
	}

	stats := &AnalyticsStats{TotalQueries: total, TopIntents: top}
	if total > 0 {
		stats.SuccessRate = float64(successful) / float64(total) * 100
	}
	return stats, nil
}

// AddFAQ appends an entry to the knowledge base.
func (s *Store) AddFAQ(question, answer string) error {
	faq := models.FAQ{Question: question, Answer: answer}
	if err := s.db.Create(&faq).Error; err != nil {
		return fmt.Errorf("ledger: add faq: %w", err)
	}
	return nil
}

// AllFAQs returns the knowledge base, newest first.
func (s *Store) AllFAQs() ([]models.FAQ, error) {
	var faqs []models.FAQ
	if err := s.db.Order("id DESC").Find(&faqs).Error; err != nil {
		return nil, fmt.Errorf("ledger: all faqs: %w", err)
	}
	return faqs, nil
}

// LookupFAQ finds the first FAQ whose question is contained in the user's
// text (case-insensitive substring match). Returns ok=false on no hit.
func (s *Store) LookupFAQ(text string) (string, bool, error) {
	faqs, err := s.AllFAQs()
	if err != nil {
		return "", false, err
	}
	needle := strings.ToLower(strings.TrimSpace(text))
	for _, f := range faqs {
		q := strings.ToLower(strings.TrimSpace(f.Question))
		if q != "" && strings.Contains(needle, q) {
			return f.Answer, true, nil
		}
	}
	return "", false, nil
}
