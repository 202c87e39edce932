package dialog

import (
	"fmt"
	"strings"

	"github.com/banktrust/bankbot/internal/nlu"
)

// Debit and credit task menus, keyed by menu digit.
var (
	debitTasks  = map[string]string{"1": "block", "2": "unblock", "3": "status", "4": "apply", "5": "report"}
	creditTasks = map[string]string{"1": "block", "2": "unblock", "3": "status", "4": "apply", "5": "bill", "6": "pay"}
)

// handleCards advances the card-management flow: variant selection, task
// selection, then authentication and execution. "apply" is terminal without
// authentication; every other task needs the card's last 4 digits, and a
// credit-card payment additionally needs the bill amount.
func (e *Engine) handleCards(s *Session, t *turn) Result {
	c := &s.Cards

	if c.Variant == "" {
		if isDebitIntent(t) {
			c.Variant = "debit"
			return scripted("debit_menu", nil, menuDebit)
		}
		if isCreditIntent(t) {
			c.Variant = "credit"
			return scripted("credit_menu", nil, menuCredit)
		}
		return scripted("card_menu", nil, "Please select 1 (Debit Services) or 2 (Credit Services).")
	}

	if c.Variant == "debit" {
		return e.handleDebit(s, t)
	}
	return e.handleCredit(s, t)
}

func (e *Engine) handleDebit(s *Session, t *turn) Result {
	c := &s.Cards

	if c.Task == "" {
		if isValidSelection(t.raw, 1, 5) {
			c.Task = debitTasks[strings.TrimSpace(t.raw)]
		} else {
			c.Task = keywordCardTask(t.clean, false)
		}
		if c.Task == "" {
			return scripted("debit_menu", nil, menuDebit)
		}
	}

	if c.Task == "apply" {
		s.ResetCards()
		s.ActiveMenu = MenuNone
		return scripted("debit_apply", nil, "New Debit Service request logged. Your card will be dispatched within 7 working days.")
	}

	if c.CardLast4 == "" {
		last4, ok := t.entities[nlu.KeyLast4]
		if !ok {
			return scripted("ask_last4", nil, "Security Check: Enter the last 4 digits of your debit card.")
		}
		c.CardLast4 = last4
	}

	last4, task := c.CardLast4, c.Task
	s.ResetCards()
	s.ActiveMenu = MenuNone

	switch task {
	case "block":
		return scripted("card_blocked", nil, fmt.Sprintf("Debit Card ending in %s has been BLOCKED.", last4))
	case "unblock":
		return scripted("card_unblocked", nil, fmt.Sprintf("Debit Card ending in %s is now ACTIVE.", last4))
	case "status":
		return scripted("card_status", nil, fmt.Sprintf("Debit Card %s status: ACTIVE / OPERATIONAL.", last4))
	default: // report
		return scripted("card_report", nil, fmt.Sprintf("Card %s reported LOST. Permanent block applied.", last4))
	}
}

func (e *Engine) handleCredit(s *Session, t *turn) Result {
	c := &s.Cards

	if c.Task == "" {
		if isValidSelection(t.raw, 1, 6) {
			c.Task = creditTasks[strings.TrimSpace(t.raw)]
		} else {
			c.Task = keywordCardTask(t.clean, true)
		}
		if c.Task == "" {
			return scripted("credit_menu", nil, menuCredit)
		}
	}

	if c.Task == "apply" {
		s.ResetCards()
		s.ActiveMenu = MenuNone
		return scripted("credit_apply", nil, "Credit Service application initialized. Our team will contact you shortly.")
	}

	if c.CardLast4 == "" {
		last4, ok := t.entities[nlu.KeyLast4]
		if !ok {
			return scripted("ask_last4", nil, "Security Check: Enter the last 4 digits of your credit card.")
		}
		c.CardLast4 = last4
		// The digits just consumed as last4 must not double as the bill
		// amount on the same turn.
		if c.Task == "pay" {
			return scripted("ask_amount", nil, "Enter payment amount.")
		}
	}

	// Bill settlement needs an amount before it can execute.
	if c.Task == "pay" && c.BillAmount == "" {
		amount, ok := t.entities[nlu.KeyAmount]
		if !ok {
			return scripted("ask_amount", nil, "Enter payment amount.")
		}
		c.BillAmount = amount
	}

	last4, task, bill := c.CardLast4, c.Task, c.BillAmount
	s.ResetCards()
	s.ActiveMenu = MenuNone

	var msg string
	switch task {
	case "block":
		msg = fmt.Sprintf("Credit Card %s has been temporarily blocked.", last4)
	case "unblock":
		msg = fmt.Sprintf("Credit Card %s access restored.", last4)
	case "status":
		msg = fmt.Sprintf("Credit Card %s is Active with full limit availability.", last4)
	case "bill":
		msg = fmt.Sprintf("Current outstanding for %s is ₹12,450. Due date: 5th of next month.", last4)
	default: // pay
		msg = fmt.Sprintf("Payment of ₹%s acknowledged for card %s.", bill, last4)
	}
	return scripted("credit_action", nil, msg)
}

// keywordCardTask maps free text to a card task. The "un" guard keeps
// "unblock" from matching as "block".
func keywordCardTask(clean string, credit bool) string {
	switch {
	case strings.Contains(clean, "block") && !strings.Contains(clean, "un"):
		return "block"
	case strings.Contains(clean, "unblock"):
		return "unblock"
	case strings.Contains(clean, "status"):
		return "status"
	case strings.Contains(clean, "apply"):
		return "apply"
	}
	if credit {
		switch {
		case strings.Contains(clean, "pay"):
			return "pay"
		case strings.Contains(clean, "bill"):
			return "bill"
		}
		return ""
	}
	if strings.Contains(clean, "report") || strings.Contains(clean, "lost") {
		return "report"
	}
	return ""
}
