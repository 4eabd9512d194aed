package finance

import (
	"math/rand"
	"reflect"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"finboard-server/src/models"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name            string
		accounts        []models.Account
		wantAssets      string
		wantLiabilities string
		wantNetWorth    string
		wantDepository  string
		wantInvestment  string
		wantCredit      string
		wantLoan        string
		wantExcluded    []models.ExclusionReason
	}{
		{
			name: "mixed accounts with a EUR loan",
			accounts: []models.Account{
				acct("a1", "depository", "1000.00", usd()),
				acct("a2", "credit", "-250.50", usd()),
				acct("a3", "loan", "-5000.00", currency("EUR")),
			},
			wantAssets: "1000", wantLiabilities: "250.5", wantNetWorth: "749.5",
			wantDepository: "1000", wantInvestment: "0", wantCredit: "250.5", wantLoan: "0",
			wantExcluded: []models.ExclusionReason{models.ExcludedCurrency},
		},
		{
			name:       "empty collection",
			wantAssets: "0", wantLiabilities: "0", wantNetWorth: "0",
			wantDepository: "0", wantInvestment: "0", wantCredit: "0", wantLoan: "0",
		},
		{
			name: "undefined balance counts as zero",
			accounts: []models.Account{
				{AccountID: "a1", Type: "depository"},
				acct("a2", "investment", "300.10", nil),
				acct("a3", "depository", "not-a-number", usd()),
			},
			wantAssets: "300.1", wantLiabilities: "0", wantNetWorth: "300.1",
			wantDepository: "0", wantInvestment: "300.1", wantCredit: "0", wantLoan: "0",
		},
		{
			name: "unrecognized type is excluded",
			accounts: []models.Account{
				acct("a1", "depository", "50", usd()),
				acct("a2", "brokerage", "10000", usd()),
				acct("a3", "", "10", usd()),
			},
			wantAssets: "50", wantLiabilities: "0", wantNetWorth: "50",
			wantDepository: "50", wantInvestment: "0", wantCredit: "0", wantLoan: "0",
			wantExcluded: []models.ExclusionReason{models.ExcludedType, models.ExcludedType},
		},
		{
			name: "type matching ignores case and whitespace",
			accounts: []models.Account{
				acct("a1", " Depository", "20", usd()),
				acct("a2", "CREDIT ", "-5", usd()),
			},
			wantAssets: "20", wantLiabilities: "5", wantNetWorth: "15",
			wantDepository: "20", wantInvestment: "0", wantCredit: "5", wantLoan: "0",
		},
		{
			name: "liabilities use absolute value of either sign",
			accounts: []models.Account{
				acct("a1", "credit", "300", usd()),
				acct("a2", "loan", "-1200.25", usd()),
			},
			wantAssets: "0", wantLiabilities: "1500.25", wantNetWorth: "-1500.25",
			wantDepository: "0", wantInvestment: "0", wantCredit: "300", wantLoan: "1200.25",
		},
		{
			name: "negative depository balance reduces assets",
			accounts: []models.Account{
				acct("a1", "depository", "-40", usd()),
				acct("a2", "investment", "100", usd()),
			},
			wantAssets: "60", wantLiabilities: "0", wantNetWorth: "60",
			wantDepository: "-40", wantInvestment: "100", wantCredit: "0", wantLoan: "0",
		},
		{
			name: "rounds half away from zero",
			accounts: []models.Account{
				acct("a1", "depository", "0.125", usd()),
				acct("a2", "credit", "-0.005", usd()),
			},
			wantAssets: "0.13", wantLiabilities: "0.01", wantNetWorth: "0.12",
			wantDepository: "0.13", wantInvestment: "0", wantCredit: "0.01", wantLoan: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.accounts)

			checks := []struct {
				field string
				got   models.Amount
				want  string
			}{
				{"TotalAssets", got.TotalAssets, tt.wantAssets},
				{"TotalLiabilities", got.TotalLiabilities, tt.wantLiabilities},
				{"NetWorth", got.NetWorth, tt.wantNetWorth},
				{"AssetsByType.Depository", got.AssetsByType.Depository, tt.wantDepository},
				{"AssetsByType.Investment", got.AssetsByType.Investment, tt.wantInvestment},
				{"AssetsByType.Total", got.AssetsByType.Total, tt.wantAssets},
				{"LiabilitiesByType.Credit", got.LiabilitiesByType.Credit, tt.wantCredit},
				{"LiabilitiesByType.Loan", got.LiabilitiesByType.Loan, tt.wantLoan},
				{"LiabilitiesByType.Total", got.LiabilitiesByType.Total, tt.wantLiabilities},
			}
			for _, c := range checks {
				if !c.got.Valid {
					t.Errorf("%s is not valid", c.field)
				}
				if !c.got.Equal(decimal.RequireFromString(c.want)) {
					t.Errorf("%s = %s, want %s", c.field, c.got.String(), c.want)
				}
			}

			var reasons []models.ExclusionReason
			for _, ex := range got.Excluded {
				reasons = append(reasons, ex.Reason)
			}
			if !reflect.DeepEqual(reasons, tt.wantExcluded) {
				t.Errorf("Excluded reasons = %v, want %v", reasons, tt.wantExcluded)
			}
		})
	}
}

func randomAccounts(r *rand.Rand, n int) []models.Account {
	types := []string{"depository", "investment", "credit", "loan", "other", "Credit"}
	currencies := []*string{nil, usd(), currency("EUR"), currency(""), currency("GBP")}
	accounts := make([]models.Account, n)
	for i := range accounts {
		cents := r.Int63n(2_000_000) - 1_000_000
		accounts[i] = models.Account{
			AccountID: "a" + strconv.Itoa(i),
			Type:      types[r.Intn(len(types))],
			Balances: models.Balances{
				Current:         models.NewAmount(decimal.New(cents, -3)),
				IsoCurrencyCode: currencies[r.Intn(len(currencies))],
			},
		}
	}
	return accounts
}

func TestSummarize_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		accounts := randomAccounts(r, r.Intn(30))
		got := Summarize(accounts)

		if !got.TotalAssets.Sub(got.TotalLiabilities.Decimal).Equal(got.NetWorth.Decimal) {
			t.Fatalf("round %d: assets %s - liabilities %s != net worth %s",
				round, got.TotalAssets, got.TotalLiabilities, got.NetWorth)
		}
		if got.LiabilitiesByType.Credit.IsNegative() || got.LiabilitiesByType.Loan.IsNegative() {
			t.Fatalf("round %d: negative liability subtotal credit=%s loan=%s",
				round, got.LiabilitiesByType.Credit, got.LiabilitiesByType.Loan)
		}
		for _, total := range []models.Amount{got.TotalAssets, got.TotalLiabilities, got.NetWorth} {
			if total.Exponent() < -2 && !total.Equal(total.Round(2)) {
				t.Fatalf("round %d: %s is not rounded to cents", round, total)
			}
		}

		var usdOnly []models.Account
		for _, a := range accounts {
			if a.CountsAsUSD() {
				usdOnly = append(usdOnly, a)
			}
		}
		if !reflect.DeepEqual(summaryFields(Summarize(usdOnly)), summaryFields(got)) {
			t.Fatalf("round %d: non-USD accounts changed the totals", round)
		}

		if !reflect.DeepEqual(summaryFields(Summarize(accounts)), summaryFields(got)) {
			t.Fatalf("round %d: Summarize is not idempotent", round)
		}
	}
}

func TestSummarize_DoesNotModifyInput(t *testing.T) {
	accounts := []models.Account{acct("a1", "credit", "-10", usd())}
	Summarize(accounts)
	if !accounts[0].Balances.Current.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("input balance changed to %s", accounts[0].Balances.Current)
	}
}

func TestItemTotal(t *testing.T) {
	accounts := []models.Account{
		acct("a1", "depository", "100.005", usd()),
		acct("a2", "credit", "-50", usd()),
		{AccountID: "a3", Type: "loan"},
	}
	if got := ItemTotal(accounts); !got.Equal(decimal.RequireFromString("50.01")) {
		t.Errorf("ItemTotal() = %s, want 50.01", got)
	}
	if got := ItemTotal(nil); !got.IsZero() {
		t.Errorf("ItemTotal(nil) = %s, want 0", got)
	}
}
