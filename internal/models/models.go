// Package models defines the GORM models persisted by the assistant.
package models

import "time"

// User is a bank customer with a single account.
type User struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	AccountNumber string `gorm:"size:16;uniqueIndex;not null"`
	Password      string `gorm:"size:128;not null"`
	Name          string `gorm:"size:128;not null"`
	Email         string `gorm:"size:128;index"`
	Phone         string `gorm:"size:16"`
	Balance       int64  `gorm:"default:0"`
}

// Transaction records a completed or rejected funds transfer.
type Transaction struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	SenderAccount   string `gorm:"size:16;index"`
	ReceiverAccount string `gorm:"size:16;index"`
	ReceiverName    string `gorm:"size:128"`
	Amount          int64
	Mode            string `gorm:"size:32"`
	Status          string `gorm:"size:16"`
	ReferenceID     string `gorm:"size:16"`
	CreatedAt       time.Time
}

// ChatLog captures one handled message for history and analytics.
type ChatLog struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Account     string `gorm:"size:16;index"`
	UserMessage string `gorm:"type:text;not null"`
	BotResponse string `gorm:"type:text;not null"`
	Intent      string `gorm:"size:64;index"`
	Confidence  float64
	IsFallback  bool `gorm:"default:false"`
	CreatedAt   time.Time
}

// FAQ is one entry of the static knowledge base.
type FAQ struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Question string `gorm:"type:text;not null"`
	Answer   string `gorm:"type:text;not null"`
	Category string `gorm:"size:64;default:General"`
}
