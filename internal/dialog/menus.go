package dialog

// Menu texts shown when a flow starts or asks for a selection.
const (
	menuCardType = "Select Service Type:\n1) Debit Services\n2) Credit Services"

	menuDebit = "Debit Services Options:\n" +
		"1) Block Access\n" +
		"2) Unblock Access\n" +
		"3) View Status\n" +
		"4) Request New Card\n" +
		"5) Report Theft/Loss"

	menuCredit = "Credit Services Options:\n" +
		"1) Block Access\n" +
		"2) Unblock Access\n" +
		"3) View Status & Limit\n" +
		"4) Application for New Card\n" +
		"5) View Statement\n" +
		"6) Bill Settlement"

	menuATM = "ATM Network Services:\n" +
		"1) ATM Locator\n" +
		"2) Withdrawal Limits\n" +
		"3) Dispute Cash Withdrawal\n" +
		"4) Card Retained by Machine\n" +
		"5) PIN Management"

	menuLoanMain = "Bank of Trust Lending:\n1) Secured Loans\n2) Unsecured Loans\n3) Commercial Loans"

	menuSecured   = "Secured Products:\n1) Home Loan\n2) Auto Loan\n3) Property Loan (LAP)\n4) Gold Loan\n5) FD Overdraft"
	menuUnsecured = "Unsecured Products:\n1) Personal Loan\n2) Education Loan\n3) Credit Line\n4) Debt Consolidation"
	menuBiz       = "Commercial Products:\n1) Term Loan\n2) Working Capital\n3) Equipment Finance\n4) Invoice Discounting\n5) Business OD"

	menuLoanActions = "Select Action:\n1) Check Eligibility\n2) Apply Now\n3) Application Status"
)

// Document checklists returned during the loan application docs stage.
const (
	docsSecured = "Required Documents (Bank of Trust Secured Loans):\n\n" +
		"- ID Proof: Aadhaar / PAN / Passport\n" +
		"- Address Verification: Utility Bill / Rental Agreement\n" +
		"- Income: 3 Months Salary Slips or 2 Years ITR\n" +
		"- Banking: 6 Months Statement\n" +
		"- Asset Proof: Property Deed / Vehicle Invoice / FD Receipt"

	docsUnsecured = "Required Documents (Bank of Trust Unsecured Loans):\n\n" +
		"- ID Proof: Aadhaar / PAN\n" +
		"- Income: Salary Slips / ITR\n" +
		"- Banking: 6 Months Statement\n" +
		"- Credit Score: Must meet Bank of Trust criteria\n" +
		"- Education: Admission Letter (for Edu Loan)"

	docsBiz = "Required Documents (Commercial Loans):\n\n" +
		"- Business KYC: GST & Udyam Registration\n" +
		"- Promoter KYC: Aadhaar & PAN\n" +
		"- Financials: 2 Years ITR & Balance Sheet\n" +
		"- Banking: 12 Months Statement\n" +
		"- Invoice Copies (for Discounting)"
)
