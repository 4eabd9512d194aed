package models

import (
	"strings"

	"github.com/plaid/plaid-go/v41/plaid"
)

// AccountKind is the classification of an account's raw type string.
type AccountKind int

const (
	KindUnrecognized AccountKind = iota
	KindDepository
	KindInvestment
	KindCredit
	KindLoan
)

var kindsByType = map[string]AccountKind{
	string(plaid.ACCOUNTTYPE_DEPOSITORY): KindDepository,
	string(plaid.ACCOUNTTYPE_INVESTMENT): KindInvestment,
	string(plaid.ACCOUNTTYPE_CREDIT):     KindCredit,
	string(plaid.ACCOUNTTYPE_LOAN):       KindLoan,
}

// ClassifyAccountType maps a raw type to its kind. Matching ignores case and
// surrounding whitespace; unknown values map to KindUnrecognized.
func ClassifyAccountType(raw string) AccountKind {
	return kindsByType[strings.ToLower(strings.TrimSpace(raw))]
}

func (k AccountKind) String() string {
	switch k {
	case KindDepository:
		return "depository"
	case KindInvestment:
		return "investment"
	case KindCredit:
		return "credit"
	case KindLoan:
		return "loan"
	default:
		return "unrecognized"
	}
}

// IsAsset reports whether the kind contributes to assets.
func (k AccountKind) IsAsset() bool { return k == KindDepository || k == KindInvestment }

// IsLiability reports whether the kind contributes to liabilities.
func (k AccountKind) IsLiability() bool { return k == KindCredit || k == KindLoan }
