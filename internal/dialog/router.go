package dialog

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/banktrust/bankbot/internal/config"
	"github.com/banktrust/bankbot/internal/format"
	"github.com/banktrust/bankbot/internal/ledger"
	"github.com/banktrust/bankbot/internal/models"
	"github.com/banktrust/bankbot/internal/nlu"
)

// Ledger is the account-store collaborator the transfer and balance flows
// depend on.
type Ledger interface {
	GetBalance(account string) (int64, error)
	UpdateBalance(account string, newBalance int64) error
	GetUser(account string) (*models.User, error)
	RecordTransaction(txn models.Transaction) error
}

// FAQLookup resolves free-form questions against the knowledge base.
type FAQLookup interface {
	LookupFAQ(text string) (answer string, ok bool, err error)
}

// Predictor is the statistical fallback classifier.
type Predictor interface {
	Predict(text string) nlu.Prediction
}

// Result is the engine's answer for one message.
type Result struct {
	Intent     string       `json:"intent"`
	Entities   nlu.Entities `json:"entities"`
	Response   string       `json:"response"`
	Confidence float64      `json:"confidence"`
}

// turn carries the per-message derived values through the cascade.
type turn struct {
	raw      string
	clean    string
	entities nlu.Entities
}

// rule is one guard+handler pair of the cascade. Handlers return ok=false
// to pass the message to the next rule.
type rule struct {
	name   string
	handle func(s *Session, t *turn) (Result, bool)
}

// Engine drives the conversation: entity extraction, the routing cascade,
// and the five flow state machines.
type Engine struct {
	ledger        Ledger
	faqs          FAQLookup
	classifier    Predictor
	lending       config.LendingConfig
	minConfidence float64
	rules         []rule
}

// EngineOpts holds parameters for creating an Engine. Ledger is required;
// FAQs and Classifier are optional and their cascade stages are skipped when
// absent.
type EngineOpts struct {
	Ledger        Ledger
	FAQs          FAQLookup
	Classifier    Predictor
	Lending       config.LendingConfig
	MinConfidence float64 // defaults to 0.55
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("dialog: engine: ledger is required")
	}
	minConfidence := opts.MinConfidence
	if minConfidence <= 0 {
		minConfidence = 0.55
	}
	lending := opts.Lending
	if lending.MinAge == 0 {
		lending = config.Default().Lending
	}
	e := &Engine{
		ledger:        opts.Ledger,
		faqs:          opts.FAQs,
		classifier:    opts.Classifier,
		lending:       lending,
		minConfidence: minConfidence,
	}
	// The cascade: first matching rule wins. Order is the contract.
	e.rules = []rule{
		{"loan_submission_handover", e.ruleLoanSubmission},
		{"menu_digit_guard", e.ruleMenuDigitGuard},
		{"greeting", e.ruleGreeting},
		{"cards_entry", e.ruleCardsEntry},
		{"balance_enquiry", e.ruleBalanceEnquiry},
		{"balance_followup", e.ruleBalanceFollowup},
		{"transfer_entry", e.ruleTransferEntry},
		{"transfer_flow", e.ruleTransferFlow},
		{"cards_flow", e.ruleCardsFlow},
		{"atm_entry", e.ruleATMEntry},
		{"atm_flow", e.ruleATMFlow},
		{"lending_entry", e.ruleLendingEntry},
		{"lending_flow", e.ruleLendingFlow},
		{"onboarding_entry", e.ruleOnboardingEntry},
		{"onboarding_flow", e.ruleOnboardingFlow},
		{"emi_prompt", e.ruleEMIPrompt},
		{"emi_compute", e.ruleEMICompute},
		{"classifier_fallback", e.ruleClassifier},
		{"faq_lookup", e.ruleFAQ},
		{"chitchat", e.ruleChitchat},
	}
	return e, nil
}

// HandleMessage routes one message through the cascade and returns the
// engine's reply. Nothing here is fatal: a panic in any handler degrades to
// a generic system-error response.
func (e *Engine) HandleMessage(s *Session, raw string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dialog: handle message: recovered: %v", r)
			result = Result{
				Intent:     "error",
				Entities:   nlu.Entities{},
				Response:   "System error: unable to process that request right now.",
				Confidence: 0,
			}
		}
	}()

	t := &turn{
		raw:      strings.TrimSpace(raw),
		clean:    strings.ToLower(strings.TrimSpace(raw)),
		entities: nlu.Extract(raw),
	}

	for _, r := range e.rules {
		if res, ok := r.handle(s, t); ok {
			return res
		}
	}

	return Result{
		Intent:     "fallback",
		Entities:   t.entities,
		Response:   "I didn't quite catch that. Could you rephrase?",
		Confidence: 0,
	}
}

// scripted builds a deterministic-rule Result at confidence 1.0.
func scripted(intent string, entities nlu.Entities, response string) Result {
	if entities == nil {
		entities = nlu.Entities{}
	}
	return Result{Intent: intent, Entities: entities, Response: response, Confidence: 1.0}
}

var (
	greetRe       = regexp.MustCompile(`\b(hi|hello|hey|greetings)\b`)
	balanceRe     = regexp.MustCompile(`\b(balance|funds|check balance)\b`)
	transferRe    = regexp.MustCompile(`\b(pay|transfer|send)\b`)
	accountFullRe = regexp.MustCompile(`^\d{6,16}$`)
	debitRe       = regexp.MustCompile(`\bdebit( card| service)?\b`)
	creditRe      = regexp.MustCompile(`\bcredit( card| service)?\b`)
	emiPairRe     = regexp.MustCompile(`(\d+)\s+(\d+)`)
)

// ruleLoanSubmission handles the eligibility→application handover. It fires
// before everything else so an approved applicant's "apply" is never
// reinterpreted by another rule.
func (e *Engine) ruleLoanSubmission(s *Session, t *turn) (Result, bool) {
	if !s.Lending.AwaitingSubmission {
		return Result{}, false
	}
	if strings.Contains(t.clean, "apply") {
		s.Lending.AwaitingSubmission = false
		s.Lending.Action = "apply"
		s.Lending.Stage = stageAppName
		return scripted("loan_apply_start", nil, "Starting application. Please enter your full legal name."), true
	}
	switch t.clean {
	case "no", "not now", "later", "cancel":
		s.ResetLending()
		s.ActiveMenu = MenuNone
		return scripted("reject", nil, "Understood. Bank of Trust is here when you are ready."), true
	}
	return scripted("loan_eligibility_result", nil, "Type 'apply' to proceed with your application."), true
}

// ruleMenuDigitGuard strips a stray amount entity when the message is a bare
// menu digit inside an active flow, so "2" picks option 2 instead of being
// read as ₹2. It never consumes the message.
func (e *Engine) ruleMenuDigitGuard(s *Session, t *turn) (Result, bool) {
	if s.ActiveMenu != MenuNone && len(t.raw) == 1 && t.raw >= "1" && t.raw <= "6" {
		delete(t.entities, nlu.KeyAmount)
	}
	return Result{}, false
}

func (e *Engine) ruleGreeting(s *Session, t *turn) (Result, bool) {
	if !greetRe.MatchString(t.clean) {
		return Result{}, false
	}
	return scripted("greet", t.entities, "Welcome to Bank of Trust (BOT). How may I assist you today?"), true
}

// ruleCardsEntry starts the cards flow on a menu keyword, or jumps straight
// to a variant on a debit/credit shortcut. Shortcuts are only honored when no
// other flow is active, so a "1" typed inside the loan flow is not
// reinterpreted as a card selection.
func (e *Engine) ruleCardsEntry(s *Session, t *turn) (Result, bool) {
	switch t.clean {
	case "card", "cards", "services":
		s.ActiveMenu = MenuCards
		s.ResetCards()
		return scripted("card_menu", t.entities, menuCardType), true
	}

	global := s.ActiveMenu == MenuNone && s.TxnFlow == ""
	inCards := s.ActiveMenu == MenuCards && s.Cards.Variant == ""
	if !global && !inCards {
		return Result{}, false
	}

	if isDebitIntent(t) {
		s.ActiveMenu = MenuCards
		s.ResetCards()
		s.Cards.Variant = "debit"
		return scripted("debit_menu", t.entities, menuDebit), true
	}
	if isCreditIntent(t) {
		s.ActiveMenu = MenuCards
		s.ResetCards()
		s.Cards.Variant = "credit"
		return scripted("credit_menu", t.entities, menuCredit), true
	}
	return Result{}, false
}

func (e *Engine) ruleBalanceEnquiry(s *Session, t *turn) (Result, bool) {
	if !balanceRe.MatchString(t.clean) {
		return Result{}, false
	}
	s.PrevIntent = "balance"
	return scripted("balance_enquiry", t.entities, "Please verify your account number to view balance."), true
}

func (e *Engine) ruleBalanceFollowup(s *Session, t *turn) (Result, bool) {
	if s.PrevIntent != "balance" || !accountFullRe.MatchString(t.raw) {
		return Result{}, false
	}
	s.PrevIntent = ""

	bal, err := e.ledger.GetBalance(t.raw)
	if errors.Is(err, ledger.ErrNotFound) {
		return scripted("check_balance", nil, "Account not found in Bank of Trust records."), true
	}
	if err != nil {
		log.Printf("dialog: balance lookup for %s: %v", t.raw, err)
		return scripted("check_balance", nil, "We are unable to retrieve balances right now. Please try again shortly."), true
	}
	return scripted("check_balance", nlu.Entities{nlu.KeyAccount: t.raw},
		fmt.Sprintf("Account %s: Available Balance is %s.", t.raw, format.Currency(bal))), true
}

func (e *Engine) ruleTransferEntry(s *Session, t *turn) (Result, bool) {
	if s.TxnFlow == transferFlow || !transferRe.MatchString(t.clean) {
		return Result{}, false
	}
	s.TxnFlow = transferFlow
	s.TxnStep = stepReceiver
	return scripted("transfer_money", nil, "Who is the recipient of these funds?"), true
}

func (e *Engine) ruleTransferFlow(s *Session, t *turn) (Result, bool) {
	if s.TxnFlow != transferFlow {
		return Result{}, false
	}
	return e.handleTransfer(s, t), true
}

func (e *Engine) ruleCardsFlow(s *Session, t *turn) (Result, bool) {
	if s.ActiveMenu != MenuCards {
		return Result{}, false
	}
	return e.handleCards(s, t), true
}

func (e *Engine) ruleATMEntry(s *Session, t *turn) (Result, bool) {
	switch t.clean {
	case "atm", "atms":
		s.ActiveMenu = MenuATM
		s.ResetATM()
		return scripted("atm_menu", nil, menuATM), true
	}
	return Result{}, false
}

func (e *Engine) ruleATMFlow(s *Session, t *turn) (Result, bool) {
	if s.ActiveMenu != MenuATM {
		return Result{}, false
	}
	return e.handleATM(s, t), true
}

func (e *Engine) ruleLendingEntry(s *Session, t *turn) (Result, bool) {
	switch t.clean {
	case "loan", "loans", "lending":
		s.ActiveMenu = MenuLending
		s.ResetLending()
		return scripted("loan_menu", nil, menuLoanMain), true
	}
	return Result{}, false
}

func (e *Engine) ruleLendingFlow(s *Session, t *turn) (Result, bool) {
	if s.ActiveMenu != MenuLending {
		return Result{}, false
	}
	return e.handleLending(s, t), true
}

func (e *Engine) ruleOnboardingEntry(s *Session, t *turn) (Result, bool) {
	if !strings.Contains(t.clean, "open account") && !strings.Contains(t.clean, "new account") {
		return Result{}, false
	}
	s.ActiveMenu = MenuOnboarding
	s.ResetOnboarding()
	s.Onboarding.Stage = stageKYCName
	return scripted("kyc_start", nil, "Welcome to Bank of Trust. Enter Full Name."), true
}

func (e *Engine) ruleOnboardingFlow(s *Session, t *turn) (Result, bool) {
	if s.ActiveMenu != MenuOnboarding {
		return Result{}, false
	}
	return e.handleOnboarding(s, t), true
}

func (e *Engine) ruleEMIPrompt(s *Session, t *turn) (Result, bool) {
	if !strings.Contains(t.clean, "emi") {
		return Result{}, false
	}
	return scripted("emi_calc", nil, "EMI Calculator: Enter 'LoanAmount Years' (e.g., 500000 5)."), true
}

func (e *Engine) ruleEMICompute(s *Session, t *turn) (Result, bool) {
	m := emiPairRe.FindStringSubmatch(t.raw)
	if m == nil {
		return Result{}, false
	}
	principal, err1 := strconv.ParseFloat(m[1], 64)
	years, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return Result{}, false
	}
	monthly, err := format.EMI(principal, e.lending.BaseAnnualRate/12, years*12)
	if err != nil {
		return Result{}, false
	}
	return scripted("emi_res", nil,
		fmt.Sprintf("Estimated EMI: %s/month.", format.Currency(int64(monthly)))), true
}

// ruleClassifier consults the statistical fallback classifier when no flow
// is active. The classifier's confidence is carried through unmodified.
func (e *Engine) ruleClassifier(s *Session, t *turn) (Result, bool) {
	if e.classifier == nil || s.ActiveMenu != MenuNone || s.TxnFlow != "" {
		return Result{}, false
	}
	p := e.classifier.Predict(t.raw)
	if p.Confidence < e.minConfidence || p.Response == "" {
		return Result{}, false
	}
	return Result{
		Intent:     p.Intent,
		Entities:   t.entities,
		Response:   p.Response,
		Confidence: p.Confidence,
	}, true
}

func (e *Engine) ruleFAQ(s *Session, t *turn) (Result, bool) {
	if e.faqs == nil {
		return Result{}, false
	}
	answer, ok, err := e.faqs.LookupFAQ(t.raw)
	if err != nil {
		log.Printf("dialog: faq lookup: %v", err)
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	return scripted("faq", t.entities, answer), true
}

func (e *Engine) ruleChitchat(s *Session, t *turn) (Result, bool) {
	if strings.Contains(t.clean, "thank") || strings.Contains(t.clean, "thx") {
		return scripted("thanks", nil, "You're welcome! Thank you for choosing Bank of Trust."), true
	}
	if strings.Contains(t.clean, "bye") || strings.Contains(t.clean, "exit") {
		return scripted("goodbye", nil, "Goodbye. Secure Banking with Bank of Trust."), true
	}
	return Result{}, false
}

// isDebitIntent reports a debit-variant selection: the keyword or menu
// option 1.
func isDebitIntent(t *turn) bool {
	return debitRe.MatchString(t.clean) || t.raw == "1"
}

// isCreditIntent reports a credit-variant selection: the keyword or menu
// option 2.
func isCreditIntent(t *turn) bool {
	return creditRe.MatchString(t.clean) || t.raw == "2"
}

// isValidSelection reports whether raw is a digit within [min, max].
func isValidSelection(raw string, min, max int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	return err == nil && n >= min && n <= max
}
