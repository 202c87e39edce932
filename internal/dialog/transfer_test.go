package dialog

import (
	"strings"
	"testing"

	"github.com/banktrust/bankbot/internal/format"
)

// runTransfer drives the flow up to the mode prompt.
func runTransfer(t *testing.T, e *Engine, s *Session, receiver, account, amount string) {
	t.Helper()
	if res := e.HandleMessage(s, "transfer money"); res.Intent != "transfer_money" {
		t.Fatalf("entry intent = %q, want transfer_money", res.Intent)
	}
	e.HandleMessage(s, receiver)
	e.HandleMessage(s, account)
	e.HandleMessage(s, amount)
}

func TestTransfer_Success(t *testing.T) {
	e, ledger := newTestEngine(t, EngineOpts{})
	s := NewSession()
	s.CurrentUserAccount = "100001"

	runTransfer(t, e, s, "bob iyer", "100002", "5000")
	res := e.HandleMessage(s, "upi")

	if res.Intent != "transfer_success" {
		t.Fatalf("intent = %q, response %q", res.Intent, res.Response)
	}
	if got := ledger.users["100001"].Balance; got != 53000 {
		t.Errorf("sender balance = %d, want 53000", got)
	}
	if got := ledger.users["100002"].Balance; got != 28500 {
		t.Errorf("receiver balance = %d, want 28500", got)
	}
	if len(ledger.txns) != 1 {
		t.Fatalf("recorded %d transactions, want 1", len(ledger.txns))
	}
	txn := ledger.txns[0]
	if txn.SenderAccount != "100001" || txn.ReceiverAccount != "100002" || txn.Amount != 5000 {
		t.Errorf("transaction = %+v", txn)
	}
	if txn.ReceiverName != "Bob Iyer" {
		t.Errorf("receiver name = %q, want Bob Iyer", txn.ReceiverName)
	}
	if txn.Mode != "UPI" || txn.Status != "Success" {
		t.Errorf("mode/status = %q/%q", txn.Mode, txn.Status)
	}
	if !format.RefIDPattern.MatchString(txn.ReferenceID) {
		t.Errorf("reference ID %q does not match the BOT pattern", txn.ReferenceID)
	}
	if !strings.Contains(res.Response, txn.ReferenceID) {
		t.Errorf("response %q missing reference ID", res.Response)
	}
	if s.TxnFlow != "" || s.TxnStep != 0 {
		t.Error("transfer state not cleared after completion")
	}
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	e, ledger := newTestEngine(t, EngineOpts{})
	s := NewSession()
	s.CurrentUserAccount = "100001"

	runTransfer(t, e, s, "bob", "100002", "99000")
	res := e.HandleMessage(s, "2")

	if res.Intent != "transfer_rejected" {
		t.Fatalf("intent = %q, want transfer_rejected", res.Intent)
	}
	if got := ledger.users["100001"].Balance; got != 58000 {
		t.Errorf("sender balance = %d, want unchanged 58000", got)
	}
	if got := ledger.users["100002"].Balance; got != 23500 {
		t.Errorf("receiver balance = %d, want unchanged 23500", got)
	}
	if len(ledger.txns) != 0 {
		t.Errorf("recorded %d transactions, want 0", len(ledger.txns))
	}
}

// An unknown receiver account is rejected before the sender is debited.
func TestTransfer_UnknownReceiver(t *testing.T) {
	e, ledger := newTestEngine(t, EngineOpts{})
	s := NewSession()
	s.CurrentUserAccount = "100001"

	runTransfer(t, e, s, "mallory", "424242", "5000")
	res := e.HandleMessage(s, "neft")

	if res.Intent != "transfer_rejected" {
		t.Fatalf("intent = %q, want transfer_rejected", res.Intent)
	}
	if !strings.Contains(res.Response, "No funds were moved") {
		t.Errorf("response = %q", res.Response)
	}
	if got := ledger.users["100001"].Balance; got != 58000 {
		t.Errorf("sender balance = %d, want unchanged 58000", got)
	}
}

func TestTransfer_SelfTransfer(t *testing.T) {
	e, ledger := newTestEngine(t, EngineOpts{})
	s := NewSession()
	s.CurrentUserAccount = "100001"

	runTransfer(t, e, s, "me", "100001", "100")
	res := e.HandleMessage(s, "upi")

	if res.Intent != "transfer_rejected" {
		t.Fatalf("intent = %q, want transfer_rejected", res.Intent)
	}
	if got := ledger.users["100001"].Balance; got != 58000 {
		t.Errorf("balance = %d, want unchanged", got)
	}
}

func TestTransfer_InvalidAccountReprompts(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()
	s.CurrentUserAccount = "100001"

	e.HandleMessage(s, "send money")
	e.HandleMessage(s, "bob")
	res := e.HandleMessage(s, "12")
	if !strings.Contains(res.Response, "6 to 16 digits") {
		t.Fatalf("response = %q, want re-prompt", res.Response)
	}
	if s.TxnStep != stepAccount {
		t.Fatalf("step = %d, want still %d", s.TxnStep, stepAccount)
	}
}

func TestTransfer_CurrencyMarkedAmount(t *testing.T) {
	e, ledger := newTestEngine(t, EngineOpts{})
	s := NewSession()
	s.CurrentUserAccount = "100001"

	runTransfer(t, e, s, "bob", "100002", "₹5,000")
	res := e.HandleMessage(s, "imps")

	if res.Intent != "transfer_success" {
		t.Fatalf("intent = %q, response %q", res.Intent, res.Response)
	}
	if ledger.txns[0].Amount != 5000 {
		t.Errorf("amount = %d, want 5000", ledger.txns[0].Amount)
	}
	if ledger.txns[0].Mode != "Bank Transfer" {
		t.Errorf("mode = %q, want Bank Transfer", ledger.txns[0].Mode)
	}
}

// "pay" typed while a transfer is already in flight must not restart the
// flow.
func TestTransfer_EntryNotRestarted(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()
	s.CurrentUserAccount = "100001"

	e.HandleMessage(s, "transfer")
	res := e.HandleMessage(s, "pay")
	if s.TxnStep != stepAccount {
		t.Fatalf("step = %d, want %d (receiver captured)", s.TxnStep, stepAccount)
	}
	if !strings.Contains(res.Response, "Pay") {
		t.Fatalf("response = %q, want receiver echo", res.Response)
	}
}
