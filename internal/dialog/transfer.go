package dialog

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/banktrust/bankbot/internal/format"
	"github.com/banktrust/bankbot/internal/models"
	"github.com/banktrust/bankbot/internal/nlu"
)

// Transfer flow identifiers.
const (
	transferFlow = "transfer"

	stepReceiver = 1
	stepAccount  = 2
	stepAmount   = 3
	stepMode     = 4
)

// handleTransfer walks the four transfer steps: receiver, account, amount,
// mode. The final step validates everything against the ledger before any
// balance is touched.
func (e *Engine) handleTransfer(s *Session, t *turn) Result {
	switch s.TxnStep {
	case stepReceiver:
		if t.raw == "" {
			return scripted("transfer_money", nil, "Who is the recipient of these funds?")
		}
		s.TxnReceiver = nlu.TitleCase(t.raw)
		s.TxnStep = stepAccount
		return scripted("transfer_money", nil,
			fmt.Sprintf("Enter %s's account number.", s.TxnReceiver))

	case stepAccount:
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, t.raw)
		if !accountFullRe.MatchString(digits) {
			return scripted("transfer_money", nil, "Account numbers are 6 to 16 digits. Please re-enter.")
		}
		s.TxnAcct = digits
		s.TxnStep = stepAmount
		return scripted("transfer_money", nil, "How much would you like to transfer?")

	case stepAmount:
		amt, ok := transferAmount(t)
		if !ok {
			return scripted("transfer_money", nil, "Please enter the amount in digits, e.g. 5000 or ₹5,000.")
		}
		s.TxnAmt = amt
		s.TxnStep = stepMode
		return scripted("transfer_money", nil, "Mode of transfer?\n1. UPI\n2. Bank Transfer (NEFT/IMPS/RTGS)")

	default: // stepMode
		mode := transferMode(t)
		if mode == "" {
			return scripted("transfer_money", nil, "Please choose UPI or Bank Transfer.")
		}
		return e.finalizeTransfer(s, mode)
	}
}

// transferAmount resolves the amount for the amount step: a currency-marked
// entity wins, then a plain numeric message.
func transferAmount(t *turn) (int64, bool) {
	if v, ok := t.entities[nlu.KeyAmount]; ok {
		if amt, err := strconv.ParseInt(strings.ReplaceAll(v, ",", ""), 10, 64); err == nil && amt > 0 {
			return amt, true
		}
	}
	raw := strings.ReplaceAll(strings.TrimSpace(t.raw), ",", "")
	if amt, err := strconv.ParseInt(raw, 10, 64); err == nil && amt > 0 {
		return amt, true
	}
	return 0, false
}

func transferMode(t *turn) string {
	switch {
	case t.raw == "1" || strings.Contains(t.clean, "upi"):
		return "UPI"
	case t.raw == "2" || strings.Contains(t.clean, "bank"),
		strings.Contains(t.clean, "neft"),
		strings.Contains(t.clean, "imps"),
		strings.Contains(t.clean, "rtgs"):
		return "Bank Transfer"
	}
	return ""
}

// finalizeTransfer applies every check before moving money: no self
// transfers, the sender must exist and cover the amount, and the receiver
// account must exist. A rejected transfer leaves both balances untouched.
func (e *Engine) finalizeTransfer(s *Session, mode string) Result {
	receiver, acct, amt := s.TxnReceiver, s.TxnAcct, s.TxnAmt
	s.ClearTransfer()

	if acct == s.CurrentUserAccount {
		return scripted("transfer_rejected", nil, "You cannot transfer funds to your own account.")
	}

	senderBal, err := e.ledger.GetBalance(s.CurrentUserAccount)
	if err != nil {
		return scripted("transfer_rejected", nil, "Transfer Failed: sender account not found.")
	}
	if senderBal < amt {
		return scripted("transfer_rejected", nil, fmt.Sprintf(
			"Transfer Failed: insufficient funds. Available balance is %s.", format.Currency(senderBal)))
	}

	recv, err := e.ledger.GetUser(acct)
	if err != nil {
		return scripted("transfer_rejected", nil, fmt.Sprintf(
			"Transfer Failed: account %s is not registered with Bank of Trust. No funds were moved.",
			format.MaskID(acct)))
	}

	if err := e.ledger.UpdateBalance(s.CurrentUserAccount, senderBal-amt); err != nil {
		return scripted("transfer_rejected", nil, "Transfer Failed: could not debit your account.")
	}
	if err := e.ledger.UpdateBalance(acct, recv.Balance+amt); err != nil {
		// Put the debit back so a credit failure is not a silent loss.
		if rerr := e.ledger.UpdateBalance(s.CurrentUserAccount, senderBal); rerr != nil {
			return scripted("error", nil, "System error: transfer could not be completed. Contact support.")
		}
		return scripted("transfer_rejected", nil, "Transfer Failed: could not credit the receiver.")
	}

	ref := format.NewRefID()
	if err := e.ledger.RecordTransaction(models.Transaction{
		SenderAccount:   s.CurrentUserAccount,
		ReceiverAccount: acct,
		ReceiverName:    receiver,
		Amount:          amt,
		Mode:            mode,
		Status:          "Success",
		ReferenceID:     ref,
	}); err != nil {
		// Money has already moved at this point, so the transfer still
		// succeeds even if the audit row does not land.
		log.Printf("dialog: record transaction %s: %v", ref, err)
	}

	return scripted("transfer_success", nil, fmt.Sprintf(
		"Transfer Successful!\nSent %s to %s (%s) via %s.\nRef ID: %s",
		format.Currency(amt), receiver, format.MaskID(acct), mode, ref))
}
