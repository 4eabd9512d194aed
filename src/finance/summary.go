package finance

import (
	"github.com/shopspring/decimal"

	"finboard-server/src/models"
)

// cents is the precision of every monetary output.
const cents = 2

// Summarize reduces accounts into typed totals. Accounts outside USD and
// accounts of unrecognized type are left out and listed in Excluded.
// Credit and loan balances count by absolute value. Each output is rounded
// half away from zero to cents, and NetWorth is computed from the rounded
// totals so TotalAssets - TotalLiabilities == NetWorth holds exactly.
func Summarize(accounts []models.Account) models.Summary {
	var depository, investment, credit, loan decimal.Decimal
	var excluded []models.ExcludedAccount

	for _, a := range accounts {
		if !a.CountsAsUSD() {
			excluded = append(excluded, models.ExcludedAccount{
				AccountID: a.AccountID,
				Type:      a.Type,
				Currency:  a.Currency(),
				Reason:    models.ExcludedCurrency,
			})
			continue
		}

		balance := a.Balances.Current.OrZero()
		switch a.Kind() {
		case models.KindDepository:
			depository = depository.Add(balance)
		case models.KindInvestment:
			investment = investment.Add(balance)
		case models.KindCredit:
			credit = credit.Add(balance.Abs())
		case models.KindLoan:
			loan = loan.Add(balance.Abs())
		default:
			excluded = append(excluded, models.ExcludedAccount{
				AccountID: a.AccountID,
				Type:      a.Type,
				Currency:  a.Currency(),
				Reason:    models.ExcludedType,
			})
		}
	}

	depository = depository.Round(cents)
	investment = investment.Round(cents)
	credit = credit.Round(cents)
	loan = loan.Round(cents)
	assets := depository.Add(investment)
	liabilities := credit.Add(loan)

	return models.Summary{
		TotalAssets:      models.NewAmount(assets),
		TotalLiabilities: models.NewAmount(liabilities),
		NetWorth:         models.NewAmount(assets.Sub(liabilities)),
		AssetsByType: models.AssetsByType{
			Depository: models.NewAmount(depository),
			Investment: models.NewAmount(investment),
			Total:      models.NewAmount(assets),
		},
		LiabilitiesByType: models.LiabilitiesByType{
			Credit: models.NewAmount(credit),
			Loan:   models.NewAmount(loan),
			Total:  models.NewAmount(liabilities),
		},
		Excluded: excluded,
	}
}

// ItemTotal is the plain sum of current balances rounded to cents.
func ItemTotal(accounts []models.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balances.Current.OrZero())
	}
	return total.Round(cents)
}
