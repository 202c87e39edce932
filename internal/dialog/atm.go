package dialog

import (
	"strings"

	"github.com/banktrust/bankbot/internal/nlu"
)

// atmTasks maps menu digits to ATM tasks.
var atmTasks = map[string]string{"1": "locator", "2": "limit", "3": "issue", "4": "retained", "5": "pin"}

// handleATM advances the ATM-services flow. The locator task is terminal
// without authentication; all other tasks require the card's last 4 digits.
func (e *Engine) handleATM(s *Session, t *turn) Result {
	a := &s.ATM

	if a.Task == "" {
		if isValidSelection(t.raw, 1, 5) {
			a.Task = atmTasks[strings.TrimSpace(t.raw)]
		} else {
			a.Task = keywordATMTask(t.clean)
		}
		if a.Task == "" {
			return scripted("atm_menu", nil, menuATM)
		}
	}

	if a.Task == "locator" {
		s.ResetATM()
		s.ActiveMenu = MenuNone
		return scripted("atm_loc", nil, "Sharing nearest Bank of Trust ATM locations based on your IP...")
	}

	if a.CardLast4 == "" {
		last4, ok := t.entities[nlu.KeyLast4]
		if !ok {
			return scripted("ask_last4", nil, "Please enter last 4 digits of the card used.")
		}
		a.CardLast4 = last4
	}

	task := a.Task
	s.ResetATM()
	s.ActiveMenu = MenuNone

	switch task {
	case "limit":
		return scripted("atm_info", nil, "Daily Withdrawal Limit: ₹40,000. Daily POS Limit: ₹1,00,000.")
	case "issue":
		return scripted("atm_ticket", nil, "Dispute ticket raised #ATM9921. Resolution in 48 hours.")
	case "retained":
		return scripted("atm_alert", nil, "Card retention logged. Please visit your home branch to collect it.")
	default: // pin
		return scripted("atm_pin", nil, "For security, please use the Bank of Trust Mobile App to reset PIN.")
	}
}

// keywordATMTask maps free text to an ATM task.
func keywordATMTask(clean string) string {
	switch {
	case strings.Contains(clean, "locat") || strings.Contains(clean, "near"):
		return "locator"
	case strings.Contains(clean, "limit"):
		return "limit"
	case strings.Contains(clean, "issue") || strings.Contains(clean, "dispense"):
		return "issue"
	case strings.Contains(clean, "retained") || strings.Contains(clean, "stuck"):
		return "retained"
	case strings.Contains(clean, "pin"):
		return "pin"
	}
	return ""
}
