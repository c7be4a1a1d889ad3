package loader

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/wonny/loanqa/internal/dataset"
)

// Coercer converts one raw field into a typed value
type Coercer func(raw string) dataset.Value

// Layout describes a headerless pipe-delimited file
type Layout struct {
	Name    string   // dataset name
	Columns []string // positional layout of the full record
	Keep    []string // analysed columns, in output order
	Coerce  map[string]Coercer
}

// OrigLayout is the Freddie Mac single-family origination file
// ⭐ SSOT: 원본 파일 컬럼 순서
var OrigLayout = Layout{
	Name: dataset.OrigName,
	Columns: []string{
		"CreditScore", "FirstPaymentDate", "FirstTimeHomebuyerFlag", "MaturityDate",
		"MSA", "MI_Percent", "NumberOfUnits", "OccupancyStatus", "CLTV", "DTI",
		"UPB", "LTV", "InterestRate", "Channel", "PPM_Flag", "AmortizationType",
		"PropertyState", "PropertyType", "PostalCode", "LoanSequenceNumber",
		"LoanPurpose", "LoanTerm", "NumBorrowers", "SellerName", "ServicerName",
		"SuperConformingFlag", "PreHARP_SequenceNumber", "ProgramIndicator",
		"HARP_Indicator", "PropertyValuationMethod", "InterestOnlyFlag",
		"MICancelIndicator",
	},
	Keep: []string{
		"LoanSequenceNumber", "PPM_Flag", "MaturityDate", "InterestOnlyFlag",
		"UPB", "PropertyState", "PropertyType",
	},
	Coerce: map[string]Coercer{
		"LoanSequenceNumber": Text,
		"PPM_Flag":           Flag,
		"MaturityDate":       YearMonth,
		"InterestOnlyFlag":   Flag,
		"UPB":                Number,
		"PropertyState":      Text,
		"PropertyType":       Text,
	},
}

// PerfLayout is the Freddie Mac monthly servicing (performance) file
var PerfLayout = Layout{
	Name: dataset.PerfName,
	Columns: []string{
		"LoanSequenceNumber", "MonthlyReportingPeriod", "CurrentActualUPB",
		"CurrentLoanDelinquencyStatus", "LoanAge", "MonthsToMaturity", "DefectSettlementDate",
		"ModificationFlag", "ZeroBalanceCode", "ZeroBalanceEffectiveDate",
		"CurrentInterestRate", "CurrentDeferredUPB", "DDLPI", "MIRecoveries",
		"NetSalesProceeds", "NonMIRecoveries", "Expenses", "LegalCosts",
		"MaintenanceCosts", "TaxesInsurance", "MiscExpenses", "ActualLossCalculation",
		"ModificationCost", "StepModificationFlag", "DeferredPaymentPlan",
		"EstimatedLTV", "ZeroBalanceRemovalUPB", "DelinquentAccruedInterest",
		"DelinquencyDueToDisaster", "BorrowerAssistanceStatusCode",
		"CurrentMonthModificationCost", "InterestBearingUPB",
	},
	Keep: []string{
		"LoanSequenceNumber", "CurrentActualUPB", "MonthlyReportingPeriod",
		"ZeroBalanceCode", "ZeroBalanceEffectiveDate", "CurrentInterestRate",
		"EstimatedLTV", "ModificationFlag", "LoanAge",
	},
	Coerce: map[string]Coercer{
		"LoanSequenceNumber":       Text,
		"CurrentActualUPB":         Number,
		"MonthlyReportingPeriod":   YearMonth,
		"ZeroBalanceCode":          Code, // blank: no zero-balance event
		"ZeroBalanceEffectiveDate": YearMonth,
		"CurrentInterestRate":      Number,
		"EstimatedLTV":             LTV,
		"ModificationFlag":         Code, // blank: not modified
		"LoanAge":                  Number,
	},
}

// unknownLTV is the servicer sentinel for an unavailable estimate
const unknownLTV = 999

// Text keeps the trimmed field; blank is missing
func Text(raw string) dataset.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return dataset.Null()
	}
	return dataset.Text(s)
}

// Number parses a decimal; blank or unparseable is missing
func Number(raw string) dataset.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return dataset.Null()
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return dataset.Null()
	}
	return dataset.Num(f)
}

// LTV is Number with the 999 sentinel mapped to missing
func LTV(raw string) dataset.Value {
	v := Number(raw)
	if f, ok := v.Float(); ok && f == unknownLTV {
		return dataset.Null()
	}
	return v
}

// YearMonth parses YYYYMM into the first day of the month (UTC)
func YearMonth(raw string) dataset.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return dataset.Null()
	}
	t, err := time.Parse("200601", s)
	if err != nil {
		return dataset.Null()
	}
	return dataset.Time(t)
}

// Flag maps Y/N to 1/0; blank is missing, other values are parsed as numbers
func Flag(raw string) dataset.Value {
	switch s := strings.TrimSpace(raw); s {
	case "Y":
		return dataset.Num(1)
	case "N":
		return dataset.Num(0)
	default:
		return Number(s)
	}
}

// Code keeps a categorical code; blank means the event did not happen
func Code(raw string) dataset.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return dataset.NA()
	}
	return dataset.Text(s)
}
