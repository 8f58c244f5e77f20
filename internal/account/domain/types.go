package domain

// BalanceSide represents the side of a double entry.
type BalanceSide string

const (
	SideDebit  BalanceSide = "debit"
	SideCredit BalanceSide = "credit"
)

// Opposite returns the other side of the entry.
func (s BalanceSide) Opposite() BalanceSide {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// AccountType classifies an account for validation and reporting.
type AccountType string

const (
	NonCurrentAsset     AccountType = "NON_CURRENT_ASSET"
	Inventory           AccountType = "INVENTORY"
	Bank                AccountType = "BANK"
	CurrentAsset        AccountType = "CURRENT_ASSET"
	Receivable          AccountType = "RECEIVABLE"
	NonCurrentLiability AccountType = "NON_CURRENT_LIABILITY"
	Control             AccountType = "CONTROL"
	CurrentLiability    AccountType = "CURRENT_LIABILITY"
	Payable             AccountType = "PAYABLE"
	Equity              AccountType = "EQUITY"
	OperatingRevenue    AccountType = "OPERATING_REVENUE"
	NonOperatingRevenue AccountType = "NON_OPERATING_REVENUE"
	OperatingExpense    AccountType = "OPERATING_EXPENSE"
	DirectExpense       AccountType = "DIRECT_EXPENSE"
	OverheadExpense     AccountType = "OVERHEAD_EXPENSE"
	OtherExpense        AccountType = "OTHER_EXPENSE"
	Reconciliation      AccountType = "RECONCILIATION"
)

// ReportSection is the financial statement section an account type reports
// under. Formatting of statements is a collaborator concern; the engine only
// tags the section.
type ReportSection string

const (
	SectionAssets      ReportSection = "assets"
	SectionLiabilities ReportSection = "liabilities"
	SectionEquity      ReportSection = "equity"
	SectionIncome      ReportSection = "income"
	SectionExpenses    ReportSection = "expenses"
)

// TypeConfig is one row of the account-type configuration table: the numeric
// code range reserved for the type, its normal balance side and its report
// section. The table is the single source of truth for classification rules.
type TypeConfig struct {
	Label    string
	CodeBase int64
	Normal   BalanceSide
	Section  ReportSection
}

var typeConfigs = map[AccountType]TypeConfig{
	NonCurrentAsset:     {Label: "Non Current Asset", CodeBase: 0, Normal: SideDebit, Section: SectionAssets},
	Inventory:           {Label: "Inventory", CodeBase: 100, Normal: SideDebit, Section: SectionAssets},
	Bank:                {Label: "Bank", CodeBase: 200, Normal: SideDebit, Section: SectionAssets},
	CurrentAsset:        {Label: "Current Asset", CodeBase: 300, Normal: SideDebit, Section: SectionAssets},
	Receivable:          {Label: "Receivable", CodeBase: 500, Normal: SideDebit, Section: SectionAssets},
	NonCurrentLiability: {Label: "Non Current Liability", CodeBase: 1000, Normal: SideCredit, Section: SectionLiabilities},
	Control:             {Label: "Control", CodeBase: 1100, Normal: SideCredit, Section: SectionLiabilities},
	CurrentLiability:    {Label: "Current Liability", CodeBase: 1500, Normal: SideCredit, Section: SectionLiabilities},
	Payable:             {Label: "Payable", CodeBase: 2000, Normal: SideCredit, Section: SectionLiabilities},
	Equity:              {Label: "Equity", CodeBase: 3000, Normal: SideCredit, Section: SectionEquity},
	OperatingRevenue:    {Label: "Operating Revenue", CodeBase: 4000, Normal: SideCredit, Section: SectionIncome},
	NonOperatingRevenue: {Label: "Non Operating Revenue", CodeBase: 4500, Normal: SideCredit, Section: SectionIncome},
	OperatingExpense:    {Label: "Operating Expense", CodeBase: 5000, Normal: SideDebit, Section: SectionExpenses},
	DirectExpense:       {Label: "Direct Expense", CodeBase: 6000, Normal: SideDebit, Section: SectionExpenses},
	OverheadExpense:     {Label: "Overhead Expense", CodeBase: 7000, Normal: SideDebit, Section: SectionExpenses},
	OtherExpense:        {Label: "Other Expense", CodeBase: 8000, Normal: SideDebit, Section: SectionExpenses},
	Reconciliation:      {Label: "Reconciliation", CodeBase: 9000, Normal: SideCredit, Section: SectionEquity},
}

// Config returns the configuration row for the type.
func (t AccountType) Config() (TypeConfig, bool) {
	cfg, ok := typeConfigs[t]
	return cfg, ok
}

// Valid reports whether the type is part of the closed set.
func (t AccountType) Valid() bool {
	_, ok := typeConfigs[t]
	return ok
}

// Normal returns the type's normal balance side.
func (t AccountType) Normal() BalanceSide {
	return typeConfigs[t].Normal
}

// Section returns the report section the type belongs to.
func (t AccountType) Section() ReportSection {
	return typeConfigs[t].Section
}

// CodeBase returns the first code in the range reserved for the type.
func (t AccountType) CodeBase() int64 {
	return typeConfigs[t].CodeBase
}

// Purchasables are the account types that goods and services can be bought
// into.
func Purchasables() []AccountType {
	return []AccountType{
		OperatingExpense,
		DirectExpense,
		OverheadExpense,
		OtherExpense,
		NonCurrentAsset,
		Inventory,
	}
}

// OneOf reports whether the type appears in the given set. An empty set
// matches any type.
func (t AccountType) OneOf(set []AccountType) bool {
	if len(set) == 0 {
		return true
	}
	for _, candidate := range set {
		if t == candidate {
			return true
		}
	}
	return false
}
