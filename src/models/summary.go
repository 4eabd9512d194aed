package models

import "time"

type Summary struct {
	TotalAssets       Amount            `json:"totalAssets"`
	TotalLiabilities  Amount            `json:"totalLiabilities"`
	NetWorth          Amount            `json:"netWorth"`
	AssetsByType      AssetsByType      `json:"assetsByType"`
	LiabilitiesByType LiabilitiesByType `json:"liabilitiesByType"`
	LastUpdated       time.Time         `json:"lastUpdated"`

	// Excluded lists accounts left out of the totals and why.
	Excluded []ExcludedAccount `json:"-"`
}

type AssetsByType struct {
	Depository Amount `json:"depository"`
	Investment Amount `json:"investment"`
	Total      Amount `json:"total"`
}

type LiabilitiesByType struct {
	Credit Amount `json:"credit"`
	Loan   Amount `json:"loan"`
	Total  Amount `json:"total"`
}

type ExclusionReason string

const (
	ExcludedCurrency ExclusionReason = "currency"
	ExcludedType     ExclusionReason = "unrecognized_type"
)

type ExcludedAccount struct {
	AccountID string
	Type      string
	Currency  string
	Reason    ExclusionReason
}
