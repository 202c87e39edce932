package dialog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/banktrust/bankbot/internal/format"
	"github.com/banktrust/bankbot/internal/nlu"
)

// Lending flow stages. Eligibility and application stages share the one
// stage counter; application stages start at 10.
const (
	stageEligAge    = 1
	stageEligIncome = 2
	stageEligScore  = 3

	stageAppName     = 10
	stageAppBizOrTax = 11
	stageAppGST      = 12
	stageAppDocs     = 13
)

var numberRe = regexp.MustCompile(`\d+`)

// handleLending advances the loan flow: category → product → action, then
// either the eligibility check or the application sub-flow.
func (e *Engine) handleLending(s *Session, t *turn) Result {
	l := &s.Lending

	if l.Category == "" {
		return e.lendingCategory(s, t)
	}
	if l.ProductType == "" {
		return e.lendingProduct(s, t)
	}
	if l.Action == "" {
		return e.lendingAction(s, t)
	}
	if l.Action == "check_eligibility" {
		return e.lendingEligibility(s, t)
	}
	return e.lendingApplication(s, t)
}

func (e *Engine) lendingCategory(s *Session, t *turn) Result {
	l := &s.Lending
	switch {
	case strings.Contains(t.raw, "1") || strings.Contains(t.clean, "secure") && !strings.Contains(t.clean, "unsecure"):
		l.Category = "secured"
		return scripted("loan_prod", nil, menuSecured)
	case strings.Contains(t.raw, "2") || strings.Contains(t.clean, "unsecure"):
		l.Category = "unsecured"
		return scripted("loan_prod", nil, menuUnsecured)
	case strings.Contains(t.raw, "3") || strings.Contains(t.clean, "biz") || strings.Contains(t.clean, "business"):
		l.Category = "commercial"
		return scripted("loan_prod", nil, menuBiz)
	}
	return scripted("loan_menu", nil, menuLoanMain)
}

// lendingProducts maps, per category, a menu digit or keyword to a product.
var lendingProducts = map[string][]struct {
	digit   string
	keyword string
	product string
}{
	"secured": {
		{"1", "home", "home"},
		{"2", "auto", "auto"},
		{"3", "property", "lap"},
		{"4", "gold", "gold"},
		{"5", "fd", "fd"},
	},
	"unsecured": {
		{"1", "personal", "personal"},
		{"2", "education", "education"},
		{"3", "credit", "creditline"},
		{"4", "debt", "consolidation"},
	},
	"commercial": {
		{"1", "term", "term"},
		{"2", "working", "workingcap"},
		{"3", "equip", "equipment"},
		{"4", "invoice", "invoice"},
		{"5", "od", "biz_od"},
	},
}

func (e *Engine) lendingProduct(s *Session, t *turn) Result {
	l := &s.Lending
	for _, p := range lendingProducts[l.Category] {
		if strings.Contains(t.raw, p.digit) || strings.Contains(t.clean, p.keyword) {
			l.ProductType = p.product
			return scripted("loan_act", nil, menuLoanActions)
		}
	}
	return scripted("loan_prod", nil, "Please select a valid product number.")
}

func (e *Engine) lendingAction(s *Session, t *turn) Result {
	l := &s.Lending
	switch {
	case strings.Contains(t.raw, "1") || strings.Contains(t.clean, "eligib"):
		l.Action = "check_eligibility"
		l.Stage = stageEligAge
		return scripted("elig_start", nil, "Let's check your eligibility. Enter your age.")
	case strings.Contains(t.raw, "2") || strings.Contains(t.clean, "apply"):
		// Applications are gated behind an eligibility pass.
		l.Action = "check_eligibility"
		l.Stage = stageEligAge
		return scripted("elig_force", nil, "We need to verify eligibility first. Enter your age.")
	case strings.Contains(t.raw, "3") || strings.Contains(t.clean, "status"):
		s.ResetLending()
		s.ActiveMenu = MenuNone
		return scripted("loan_stat", nil, "Please check the 'My Applications' section in your dashboard.")
	}
	return scripted("loan_act", nil, menuLoanActions)
}

// lendingEligibility runs the age → income → score gates in order. Each gate
// failure terminates the flow with a rejection; a full pass computes the
// approved limit and waits for an explicit "apply".
func (e *Engine) lendingEligibility(s *Session, t *turn) Result {
	l := &s.Lending

	switch l.Stage {
	case stageEligAge:
		age, err := strconv.Atoi(t.raw)
		if err != nil {
			return scripted("elig_age", nil, "Enter numeric age.")
		}
		l.Metrics.Age = age
		if age < e.lending.MinAge {
			s.ResetLending()
			s.ActiveMenu = MenuNone
			return scripted("elig_fail", nil, fmt.Sprintf("Minimum age is %d years.", e.lending.MinAge))
		}
		l.Stage = stageEligIncome
		return scripted("elig_inc", nil, "Enter monthly income (₹).")

	case stageEligIncome:
		m := numberRe.FindString(strings.ReplaceAll(t.raw, ",", ""))
		if m == "" {
			return scripted("elig_inc", nil, "Enter numeric income.")
		}
		income, _ := strconv.ParseInt(m, 10, 64)
		l.Metrics.Income = income
		if income < e.lending.MinIncome {
			s.ResetLending()
			s.ActiveMenu = MenuNone
			return scripted("elig_fail", nil,
				fmt.Sprintf("Minimum income requirement is %s.", format.Currency(e.lending.MinIncome)))
		}
		l.Stage = stageEligScore
		return scripted("elig_cibil", nil, "Enter Credit Score (300-900).")

	default: // stageEligScore
		score, err := strconv.Atoi(t.raw)
		if err != nil {
			return scripted("elig_cibil", nil, "Enter valid score.")
		}
		l.Metrics.Score = score
		if score < e.lending.MinCreditScore {
			s.ResetLending()
			s.ActiveMenu = MenuNone
			return scripted("elig_fail", nil,
				fmt.Sprintf("Score is below the %d threshold.", e.lending.MinCreditScore))
		}

		limit := l.Metrics.Income * e.lending.LimitMultiplier
		l.Metrics.ApprovedLimit = limit
		l.AwaitingSubmission = true
		return scripted("elig_success", nil, fmt.Sprintf(
			"Eligibility Confirmed (Bank of Trust).\nMax Limit: %s\nTenure: Up to 60 months\n\nType 'apply' to proceed.",
			format.Currency(limit)))
	}
}

// lendingApplication collects applicant details. Commercial loans branch
// through business name and GST; other categories capture a tax ID. The
// docs stage answers a checklist request without advancing, and completes on
// "done"/"upload" with a generated reference ID.
func (e *Engine) lendingApplication(s *Session, t *turn) Result {
	l := &s.Lending

	switch l.Stage {
	case stageAppName:
		l.Application.ApplicantName = nlu.TitleCase(t.raw)
		l.Stage = stageAppBizOrTax
		if l.Category == "commercial" {
			return scripted("app_biz", nil, "Enter Business Name.")
		}
		return scripted("app_pan", nil, "Enter PAN Number.")

	case stageAppBizOrTax:
		if l.Category == "commercial" {
			l.Application.BizName = t.raw
			l.Stage = stageAppGST
			return scripted("app_gst", nil, "Enter GST Number.")
		}
		l.Application.TaxID = strings.ToUpper(t.raw)
		l.Stage = stageAppDocs
		return scripted("app_docs", nil, "Upload docs. Type 'what documents' to see list, or 'done' to finish.")

	case stageAppGST:
		l.Application.GSTID = strings.ToUpper(t.raw)
		l.Stage = stageAppDocs
		return scripted("app_docs", nil, "Upload docs. Type 'what documents' to see list, or 'done' to finish.")

	default: // stageAppDocs
		if strings.Contains(t.clean, "what") && strings.Contains(t.clean, "doc") {
			switch l.Category {
			case "secured":
				return scripted("doc_list", nil, docsSecured)
			case "unsecured":
				return scripted("doc_list", nil, docsUnsecured)
			}
			return scripted("doc_list", nil, docsBiz)
		}
		if strings.Contains(t.clean, "done") || strings.Contains(t.clean, "upload") {
			ref := format.NewRefID()
			s.ResetLending()
			s.ActiveMenu = MenuNone
			return scripted("app_finish", nil, fmt.Sprintf(
				"Application Submitted Successfully!\nRef ID: %s\nBank of Trust will update you via email.", ref))
		}
		return scripted("app_wait", nil, "Type 'done' once documents are uploaded.")
	}
}
