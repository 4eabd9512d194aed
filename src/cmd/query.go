package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"finboard-server/src/finance"
	"finboard-server/src/util"
)

type summaryCmd struct {
	store storeFlags
	user  string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print a user's financial summary and items" }
func (*summaryCmd) Usage() string {
	return `finboard summary -user <user_id> [-memory [-fixture <file>]]
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.store.register(f)
	f.StringVar(&c.user, "user", "", "User id to summarize.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, log, svc, release, err := setup(ctx, &c.store)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer release()

	if err := printSummary(ctx, os.Stdout, svc, c.user); err != nil {
		log.Error().Err(err).Str("user_id", c.user).Msg("Failed to get financial summary")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printSummary joins the user's items once and prints them with the
// totals computed from the same result.
func printSummary(ctx context.Context, w io.Writer, svc *finance.Service, userID string) error {
	items, err := svc.GetItemsWithAccounts(ctx, userID)
	if err != nil {
		return err
	}
	summary := svc.SummarizeItems(userID, items)

	for _, item := range items {
		fmt.Fprintf(w, "%-28s %3d accounts %16s\n", item.InstitutionName, item.AccountCount, util.FormatUSD(item.TotalBalance.OrZero()))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-20s %16s\n", "Depository", util.FormatUSD(summary.AssetsByType.Depository.OrZero()))
	fmt.Fprintf(w, "%-20s %16s\n", "Investment", util.FormatUSD(summary.AssetsByType.Investment.OrZero()))
	fmt.Fprintf(w, "%-20s %16s\n", "Total assets", util.FormatUSD(summary.TotalAssets.OrZero()))
	fmt.Fprintf(w, "%-20s %16s\n", "Credit", util.FormatUSD(summary.LiabilitiesByType.Credit.OrZero()))
	fmt.Fprintf(w, "%-20s %16s\n", "Loan", util.FormatUSD(summary.LiabilitiesByType.Loan.OrZero()))
	fmt.Fprintf(w, "%-20s %16s\n", "Total liabilities", util.FormatUSD(summary.TotalLiabilities.OrZero()))
	fmt.Fprintf(w, "%-20s %16s\n", "Net worth", util.FormatUSD(summary.NetWorth.OrZero()))
	for _, ex := range summary.Excluded {
		fmt.Fprintf(w, "excluded %s (%s)\n", ex.AccountID, ex.Reason)
	}
	return nil
}

type transactionsCmd struct {
	store   storeFlags
	user    string
	account string
	cursor  string
	limit   int
	all     bool
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list a user's or an account's transactions" }
func (*transactionsCmd) Usage() string {
	return `finboard transactions -user <user_id> [-account <account_id>] [-cursor <c>] [-limit n] [-all]

  Prints one page of transactions as JSON, newest first, followed by the
  cursor for the next page. With -all, follows cursors to the end.
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	c.store.register(f)
	f.StringVar(&c.user, "user", "", "User id.")
	f.StringVar(&c.account, "account", "", "Restrict to one account.")
	f.StringVar(&c.cursor, "cursor", "", "Cursor returned by a previous call.")
	f.IntVar(&c.limit, "limit", 0, "Page size (server default when 0).")
	f.BoolVar(&c.all, "all", false, "Follow cursors until the last page.")
}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, log, svc, release, err := setup(ctx, &c.store)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer release()

	scope := finance.Scope{UserID: c.user, AccountID: c.account}
	if err := printTransactions(ctx, os.Stdout, svc, scope, c.cursor, c.limit, c.all); err != nil {
		log.Error().Err(err).Str("scope", scope.String()).Msg("Failed to list transactions")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printTransactions(ctx context.Context, w io.Writer, svc *finance.Service, scope finance.Scope, cursor string, limit int, all bool) error {
	enc := json.NewEncoder(w)
	for {
		page, err := svc.GetTransactions(ctx, scope, cursor, limit)
		if err != nil {
			return err
		}
		for _, t := range page.Transactions {
			if err := enc.Encode(t); err != nil {
				return err
			}
		}
		if page.Cursor == "" {
			return nil
		}
		if !all {
			fmt.Fprintf(w, "next cursor: %s\n", page.Cursor)
			return nil
		}
		cursor = page.Cursor
	}
}
