package models

type Transaction struct {
	TransactionID string   `json:"transaction_id"`
	AccountID     string   `json:"account_id"`
	Amount        Amount   `json:"amount"`
	Date          string   `json:"date"`
	Name          string   `json:"name"`
	MerchantName  *string  `json:"merchant_name,omitempty"`
	Category      []string `json:"category,omitempty"`
}

// PrimaryCategory is the first category entry, used for display.
func (t Transaction) PrimaryCategory() string {
	if len(t.Category) == 0 {
		return ""
	}
	return t.Category[0]
}

// TransactionPage is one page of a transaction listing. Cursor is empty on
// the final page.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Cursor       string        `json:"cursor,omitempty"`
}
