package dialog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/banktrust/bankbot/internal/nlu"
)

// Onboarding KYC stages.
const (
	stageKYCName = 1
	stageKYCAge  = 2
	stageKYCType = 3
	stageKYCAddr = 4
	stageKYCID   = 5
)

var govtIDRe = regexp.MustCompile(`^\d{12}$`)

// handleOnboarding walks the account-opening KYC sequence one field per turn.
func (e *Engine) handleOnboarding(s *Session, t *turn) Result {
	o := &s.Onboarding

	switch o.Stage {
	case stageKYCName:
		o.FullName = nlu.TitleCase(t.raw)
		o.Stage = stageKYCAge
		return scripted("kyc_age", nil, fmt.Sprintf("Thanks %s. What is your age?", o.FullName))

	case stageKYCAge:
		age, err := strconv.Atoi(t.raw)
		if err != nil {
			return scripted("kyc_age", nil, "Please enter your age in digits.")
		}
		if age < 18 {
			s.ResetOnboarding()
			s.ActiveMenu = MenuNone
			return scripted("kyc_fail", nil, "Must be 18+.")
		}
		o.Age = age
		o.Stage = stageKYCType
		return scripted("kyc_type", nil, "Account type?\n1. Savings\n2. Current")

	case stageKYCType:
		if strings.Contains(t.raw, "1") || strings.Contains(t.clean, "saving") {
			o.AcctType = "Savings"
		} else {
			o.AcctType = "Current"
		}
		o.Stage = stageKYCAddr
		return scripted("kyc_addr", nil, "Enter your residential address.")

	case stageKYCAddr:
		o.Address = t.raw
		o.Stage = stageKYCID
		return scripted("kyc_id", nil, "Enter your 12-digit government ID number.")

	default: // stageKYCID
		id := strings.ReplaceAll(t.raw, " ", "")
		if !govtIDRe.MatchString(id) {
			return scripted("kyc_id", nil, "That doesn't look like a 12-digit ID. Try again.")
		}
		name, acct := o.FullName, o.AcctType
		s.ResetOnboarding()
		s.ActiveMenu = MenuNone
		return scripted("kyc_done", nil, fmt.Sprintf(
			"KYC complete, %s! Your %s account request is registered. You'll receive your account kit within 7 working days.",
			name, acct))
	}
}
