package models

const USD = "USD"

type Account struct {
	AccountID string   `json:"account_id"`
	ItemID    string   `json:"item_id"`
	UserID    string   `json:"user_id,omitempty"`
	Name      string   `json:"name"`
	Mask      string   `json:"mask"`
	Type      string   `json:"type"`
	Subtype   string   `json:"subtype"`
	Balances  Balances `json:"balances"`
}

type Balances struct {
	Current         Amount  `json:"current"`
	Available       Amount  `json:"available"`
	IsoCurrencyCode *string `json:"iso_currency_code"`
}

func (a Account) Kind() AccountKind {
	return ClassifyAccountType(a.Type)
}

// Currency returns the account's currency code, "" when unspecified.
func (a Account) Currency() string {
	if a.Balances.IsoCurrencyCode == nil {
		return ""
	}
	return *a.Balances.IsoCurrencyCode
}

// CountsAsUSD reports whether the account is in USD or has no currency set.
func (a Account) CountsAsUSD() bool {
	c := a.Currency()
	return c == "" || c == USD
}
