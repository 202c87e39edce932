// Package dialog implements the conversation engine: the per-conversation
// session context, the five task-flow state machines, and the priority
// cascade that routes each message.
package dialog

// Menu identifies which flow, if any, owns the conversation. At most one
// flow is active at a time.
type Menu string

// Menu values.
const (
	MenuNone       Menu = ""
	MenuCards      Menu = "cards"
	MenuATM        Menu = "atm"
	MenuLending    Menu = "lending"
	MenuOnboarding Menu = "onboarding"
)

// CardsContext is the card-management flow state.
type CardsContext struct {
	Variant    string // "debit" or "credit"
	Task       string // block, unblock, status, apply, report, bill, pay
	Stage      int
	CardLast4  string
	BillAmount string
}

// ATMContext is the ATM-services flow state.
type ATMContext struct {
	Task      string // locator, limit, issue, retained, pin
	CardLast4 string
}

// LendingMetrics holds the applicant figures collected during an
// eligibility check.
type LendingMetrics struct {
	Age           int
	Income        int64
	Score         int
	ApprovedLimit int64
}

// LoanApplication holds the fields collected during a loan application.
type LoanApplication struct {
	ApplicantName string
	TaxID         string
	BizName       string
	GSTID         string
}

// LendingContext is the loan flow state.
type LendingContext struct {
	Category           string // secured, unsecured, commercial
	ProductType        string
	Action             string // check_eligibility, apply, status
	Stage              int
	Metrics            LendingMetrics
	Application        LoanApplication
	AwaitingSubmission bool
}

// OnboardingContext is the account-opening KYC flow state.
type OnboardingContext struct {
	Stage    int
	FullName string
	Age      int
	AcctType string
	Address  string
	GovtID   string
}

// Session is the per-conversation mutable state. The caller owns its
// lifetime and the identity-to-session mapping; the engine never shares one
// session across conversations. Callers must serialize turns per session.
type Session struct {
	ActiveMenu Menu

	Cards      CardsContext
	ATM        ATMContext
	Lending    LendingContext
	Onboarding OnboardingContext

	// Funds-transfer flow state.
	TxnFlow     string
	TxnStep     int
	TxnReceiver string
	TxnAcct     string
	TxnAmt      int64

	// PrevIntent is the last ambiguous intent awaiting a follow-up, e.g. a
	// balance enquiry waiting for an account number.
	PrevIntent string

	// CurrentUserAccount is the identity injected by the calling layer;
	// required before transfer and balance operations execute.
	CurrentUserAccount string
}

// NewSession returns a Session with every field at its default.
func NewSession() *Session {
	return &Session{}
}

// Resets replace the whole sub-struct rather than clearing fields one by
// one, so no value from a prior flow can leak into a new one.

// ResetCards restores the cards flow to its initial state.
func (s *Session) ResetCards() {
	s.Cards = CardsContext{}
}

// ResetATM restores the ATM flow to its initial state.
func (s *Session) ResetATM() {
	s.ATM = ATMContext{}
}

// ResetLending restores the lending flow to its initial state.
func (s *Session) ResetLending() {
	s.Lending = LendingContext{}
}

// ResetOnboarding restores the onboarding flow to its initial state.
func (s *Session) ResetOnboarding() {
	s.Onboarding = OnboardingContext{}
}

// ClearTransfer restores the funds-transfer flow to its initial state.
func (s *Session) ClearTransfer() {
	s.TxnFlow = ""
	s.TxnStep = 0
	s.TxnReceiver = ""
	s.TxnAcct = ""
	s.TxnAmt = 0
}

// ResetAll clears every flow and the active menu, keeping only the
// conversation identity.
func (s *Session) ResetAll() {
	s.ActiveMenu = MenuNone
	s.ResetCards()
	s.ResetATM()
	s.ResetLending()
	s.ResetOnboarding()
	s.ClearTransfer()
	s.PrevIntent = ""
}
