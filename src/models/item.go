package models

type Item struct {
	ItemID          string `json:"item_id"`
	InstitutionID   string `json:"institution_id"`
	InstitutionName string `json:"institution_name"`
	UserID          string `json:"user_id"`
}

// ItemWithAccounts is an item joined to the accounts stored under it.
// TotalBalance is the plain sum of current balances, not sign adjusted.
type ItemWithAccounts struct {
	ItemID          string    `json:"item_id"`
	InstitutionID   string    `json:"institution_id"`
	InstitutionName string    `json:"institution_name"`
	Accounts        []Account `json:"accounts"`
	TotalBalance    Amount    `json:"totalBalance"`
	AccountCount    int       `json:"accountCount"`
}
