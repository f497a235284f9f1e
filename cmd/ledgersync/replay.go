package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/ledgersync/internal/domain"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

type replayEngine interface {
	Scenario(alias string, kind domain.EventKind) string
	Handle(ctx context.Context, alias string, n domain.Notification, accountID string) error
}

type replayDirectory interface {
	Resolve(alias string) (domain.LedgerAccount, error)
}

func replayCmd() *cobra.Command {
	var alias, file string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a stored event through the orchestration engine",
		Long: `Replay feeds an event payload, as exported from a ledger's event log,
through the same transition a live notification on --alias would run.
The payload is trusted as-is: no signature is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("replay: %w", err)
			}
			a, err := newApp("ledgersync-cli")
			if err != nil {
				return err
			}
			return replay(cmd.Context(), cmd.OutOrStdout(), a.engine, a.dir, alias, payload)
		},
	}

	cmd.Flags().StringVarP(&alias, "alias", "a", "", "Ledger alias the event was received on")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the event JSON")
	_ = cmd.MarkFlagRequired("alias")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func replay(ctx context.Context, out io.Writer, engine replayEngine, dir replayDirectory, alias string, payload []byte) error {
	alias = settings.NormalizeAlias(alias)
	n, err := ledger.ParseNotification(payload)
	if err != nil {
		return err
	}
	account, err := dir.Resolve(alias)
	if err != nil {
		return err
	}

	scenario := engine.Scenario(alias, n.Type)
	if scenario == "" {
		fmt.Fprintf(out, "%s (%s) is not handled on %s\n", n.ID, n.Type, alias)
		return nil
	}
	if err := engine.Handle(ctx, alias, n, account.AccountID); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%s) replayed on %s: %s\n", n.ID, n.Type, alias, scenario)
	return nil
}
