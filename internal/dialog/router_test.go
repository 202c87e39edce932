package dialog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/banktrust/bankbot/internal/ledger"
	"github.com/banktrust/bankbot/internal/models"
	"github.com/banktrust/bankbot/internal/nlu"
)

// fakeLedger is an in-memory Ledger for engine tests.
type fakeLedger struct {
	users map[string]*models.User
	txns  []models.Transaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{users: map[string]*models.User{
		"100001": {AccountNumber: "100001", Name: "Alice Fernandes", Balance: 58000},
		"100002": {AccountNumber: "100002", Name: "Bob Iyer", Balance: 23500},
	}}
}

func (f *fakeLedger) GetBalance(account string) (int64, error) {
	u, ok := f.users[account]
	if !ok {
		return 0, fmt.Errorf("ledger: account %s: %w", account, ledger.ErrNotFound)
	}
	return u.Balance, nil
}

func (f *fakeLedger) UpdateBalance(account string, newBalance int64) error {
	u, ok := f.users[account]
	if !ok {
		return fmt.Errorf("ledger: account %s: %w", account, ledger.ErrNotFound)
	}
	u.Balance = newBalance
	return nil
}

func (f *fakeLedger) GetUser(account string) (*models.User, error) {
	u, ok := f.users[account]
	if !ok {
		return nil, fmt.Errorf("ledger: account %s: %w", account, ledger.ErrNotFound)
	}
	return u, nil
}

func (f *fakeLedger) RecordTransaction(txn models.Transaction) error {
	f.txns = append(f.txns, txn)
	return nil
}

type fakeFAQs struct {
	question, answer string
}

func (f *fakeFAQs) LookupFAQ(text string) (string, bool, error) {
	if f.question != "" && strings.Contains(strings.ToLower(text), f.question) {
		return f.answer, true, nil
	}
	return "", false, nil
}

type fakePredictor struct {
	pred nlu.Prediction
}

func (f *fakePredictor) Predict(string) nlu.Prediction { return f.pred }

func newTestEngine(t *testing.T, opts EngineOpts) (*Engine, *fakeLedger) {
	t.Helper()
	ledger := newFakeLedger()
	if opts.Ledger == nil {
		opts.Ledger = ledger
	}
	e, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, ledger
}

func TestNewEngine_RequiresLedger(t *testing.T) {
	if _, err := NewEngine(EngineOpts{}); err == nil {
		t.Fatal("expected error for missing ledger")
	}
}

func TestGreeting(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()

	res := e.HandleMessage(s, "hello there")
	if res.Intent != "greet" {
		t.Fatalf("intent = %q, want greet", res.Intent)
	}
	if res.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", res.Confidence)
	}
}

func TestBalanceEnquiryFollowup(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()

	res := e.HandleMessage(s, "check my balance please")
	if res.Intent != "balance_enquiry" {
		t.Fatalf("intent = %q, want balance_enquiry", res.Intent)
	}
	if s.PrevIntent != "balance" {
		t.Fatalf("PrevIntent = %q, want balance", s.PrevIntent)
	}

	res = e.HandleMessage(s, "100001")
	if res.Intent != "check_balance" {
		t.Fatalf("intent = %q, want check_balance", res.Intent)
	}
	if !strings.Contains(res.Response, "₹58,000") {
		t.Fatalf("response %q missing balance", res.Response)
	}
	if s.PrevIntent != "" {
		t.Fatalf("PrevIntent not cleared: %q", s.PrevIntent)
	}
}

func TestBalanceFollowup_UnknownAccount(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()

	e.HandleMessage(s, "balance")
	res := e.HandleMessage(s, "999999")
	if res.Intent != "check_balance" {
		t.Fatalf("intent = %q, want check_balance", res.Intent)
	}
	if !strings.Contains(res.Response, "not found") {
		t.Fatalf("response %q, want not-found message", res.Response)
	}
}

type downLedger struct{ *fakeLedger }

func (downLedger) GetBalance(string) (int64, error) {
	return 0, fmt.Errorf("ledger: get user: connection refused")
}

// A storage failure must not masquerade as a missing account.
func TestBalanceFollowup_StorageFailure(t *testing.T) {
	e, err := NewEngine(EngineOpts{Ledger: downLedger{newFakeLedger()}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	s := NewSession()

	e.HandleMessage(s, "balance")
	res := e.HandleMessage(s, "100001")
	if res.Intent != "check_balance" {
		t.Fatalf("intent = %q, want check_balance", res.Intent)
	}
	if strings.Contains(res.Response, "not found") {
		t.Fatalf("response %q reports a missing account for a storage failure", res.Response)
	}
	if !strings.Contains(res.Response, "unable to retrieve") {
		t.Fatalf("response %q, want system-error message", res.Response)
	}
}

// An account number with no pending balance enquiry must not leak a balance.
func TestAccountNumberWithoutEnquiry(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()

	res := e.HandleMessage(s, "100001")
	if res.Intent == "check_balance" {
		t.Fatalf("balance disclosed without prior enquiry: %q", res.Response)
	}
}

func TestClassifierFallback_AboveThreshold(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{
		Classifier: &fakePredictor{pred: nlu.Prediction{
			Intent: "working_hours", Confidence: 0.91, Response: "We are open 9 to 5.",
		}},
	})
	s := NewSession()

	res := e.HandleMessage(s, "when are you open")
	if res.Intent != "working_hours" {
		t.Fatalf("intent = %q, want working_hours", res.Intent)
	}
	if res.Confidence != 0.91 {
		t.Fatalf("confidence = %v, want 0.91 carried through", res.Confidence)
	}
}

func TestClassifierFallback_BelowThreshold(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{
		Classifier: &fakePredictor{pred: nlu.Prediction{
			Intent: "working_hours", Confidence: 0.40, Response: "We are open 9 to 5.",
		}},
	})
	s := NewSession()

	res := e.HandleMessage(s, "zxqv blarg")
	if res.Intent != "fallback" {
		t.Fatalf("intent = %q, want fallback", res.Intent)
	}
	if res.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", res.Confidence)
	}
}

// The classifier must stay out of an active flow even at high confidence.
func TestClassifierSuppressedInsideFlow(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{
		Classifier: &fakePredictor{pred: nlu.Prediction{
			Intent: "working_hours", Confidence: 0.99, Response: "We are open 9 to 5.",
		}},
	})
	s := NewSession()

	e.HandleMessage(s, "cards")
	res := e.HandleMessage(s, "some rambling text")
	if res.Intent == "working_hours" {
		t.Fatal("classifier fired inside the cards flow")
	}
}

func TestFAQLookup(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{
		FAQs: &fakeFAQs{question: "ifsc", answer: "The IFSC code is BOTR0000001."},
	})
	s := NewSession()

	res := e.HandleMessage(s, "what is the IFSC code of your branch")
	if res.Intent != "faq" {
		t.Fatalf("intent = %q, want faq", res.Intent)
	}
	if res.Response != "The IFSC code is BOTR0000001." {
		t.Fatalf("response = %q", res.Response)
	}
}

func TestChitchat(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()

	if res := e.HandleMessage(s, "thanks a lot"); res.Intent != "thanks" {
		t.Fatalf("intent = %q, want thanks", res.Intent)
	}
	if res := e.HandleMessage(s, "bye"); res.Intent != "goodbye" {
		t.Fatalf("intent = %q, want goodbye", res.Intent)
	}
}

func TestFallback_NoRuleMatches(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()

	res := e.HandleMessage(s, "zxqv blarg")
	if res.Intent != "fallback" {
		t.Fatalf("intent = %q, want fallback", res.Intent)
	}
	if res.Entities == nil {
		t.Fatal("entities must be non-nil")
	}
}

func TestEMICalculator(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()

	res := e.HandleMessage(s, "emi")
	if res.Intent != "emi_calc" {
		t.Fatalf("intent = %q, want emi_calc", res.Intent)
	}

	res = e.HandleMessage(s, "500000 5")
	if res.Intent != "emi_res" {
		t.Fatalf("intent = %q, want emi_res", res.Intent)
	}
	// 500000 over 60 months at the default 8.5% annual rate.
	if !strings.Contains(res.Response, "₹10,258") {
		t.Fatalf("response = %q, want EMI near ₹10,258", res.Response)
	}
}

// A bare menu digit inside a flow must act as a selection, never as an
// amount.
func TestMenuDigitGuard(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()

	e.HandleMessage(s, "cards")
	res := e.HandleMessage(s, "2")
	if res.Intent != "credit_menu" {
		t.Fatalf("intent = %q, want credit_menu", res.Intent)
	}
	if _, ok := res.Entities[nlu.KeyAmount]; ok {
		t.Fatal("amount entity leaked through the digit guard")
	}
}

type panicLedger struct{ *fakeLedger }

func (panicLedger) GetBalance(string) (int64, error) { panic("boom") }

// A panicking collaborator degrades to a system-error reply, never a crash.
func TestHandleMessage_RecoversPanic(t *testing.T) {
	e, err := NewEngine(EngineOpts{Ledger: panicLedger{newFakeLedger()}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	s := NewSession()

	e.HandleMessage(s, "balance")
	res := e.HandleMessage(s, "100001")
	if res.Intent != "error" {
		t.Fatalf("intent = %q, want error", res.Intent)
	}
}

func TestResetAll(t *testing.T) {
	e, _ := newTestEngine(t, EngineOpts{})
	s := NewSession()
	s.CurrentUserAccount = "100001"

	e.HandleMessage(s, "loan")
	e.HandleMessage(s, "1")
	e.HandleMessage(s, "1")
	s.ResetAll()

	if s.ActiveMenu != MenuNone {
		t.Fatalf("ActiveMenu = %q after reset", s.ActiveMenu)
	}
	if s.Lending != (LendingContext{}) {
		t.Fatalf("Lending not zeroed: %+v", s.Lending)
	}
	if s.TxnFlow != "" || s.TxnStep != 0 {
		t.Fatal("transfer state not cleared")
	}
	if s.CurrentUserAccount != "100001" {
		t.Fatal("reset must keep the conversation identity")
	}
}
