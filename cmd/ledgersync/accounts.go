package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List configured ledgers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("ledgersync-cli")
			if err != nil {
				return err
			}
			accounts, err := a.dir.Accounts()
			if err != nil {
				return err
			}
			return printAccounts(cmd.OutOrStdout(), accounts)
		},
	}
}

func printAccounts(w io.Writer, accounts []domain.AccountSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALIAS\tACCOUNT\tCOUNTRY\tROLE")
	for _, acc := range accounts {
		role := "processing"
		if acc.IsMaster {
			role = "master"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", acc.Alias, valueOrDash(acc.AccountID), valueOrDash(acc.Country), role)
	}
	return tw.Flush()
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
