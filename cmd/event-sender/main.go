package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/josh-kwaku/ledgersync/internal/directory"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/logging"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

type sendOptions struct {
	baseURL       string
	alias         string
	file          string
	secret        string
	runtimeConfig string
	timeout       time.Duration
}

func main() {
	logging.Init("event-sender", "info", os.Getenv("APP_ENV"))

	opts := sendOptions{}
	cmd := &cobra.Command{
		Use:           "event-sender",
		Short:         "Sign an event fixture and post it to a running gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Gateway base URL")
	cmd.Flags().StringVarP(&opts.alias, "alias", "a", "", "Ledger alias to post as")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Path to the event JSON")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "Webhook signing secret (defaults to the alias' configured secret)")
	cmd.Flags().StringVar(&opts.runtimeConfig, "runtime-config", "config/runtime-config.json", "Runtime settings used to look up the secret")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Request timeout")
	_ = cmd.MarkFlagRequired("alias")
	_ = cmd.MarkFlagRequired("file")

	if err := cmd.Execute(); err != nil {
		slog.Error("send failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts sendOptions) error {
	alias := settings.NormalizeAlias(opts.alias)

	payload, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	n, err := ledger.ParseNotification(payload)
	if err != nil {
		return err
	}

	secret := strings.TrimSpace(opts.secret)
	if secret == "" {
		store, err := settings.NewStore(opts.runtimeConfig)
		if err != nil {
			return err
		}
		if secret, err = directory.New(store).WebhookSecret(alias); err != nil {
			return err
		}
	}

	status, body, err := send(ctx, &http.Client{Timeout: opts.timeout}, opts.baseURL, alias, secret, payload)
	if err != nil {
		return err
	}
	slog.Info("event delivered",
		"alias", alias,
		"event_id", n.ID,
		"event_type", n.Type,
		"status", status,
		"response", body,
	)
	if status != http.StatusOK {
		return fmt.Errorf("gateway answered %d: %s", status, body)
	}
	return nil
}

// send signs payload the way a ledger does and posts it to the alias' webhook
// route.
func send(ctx context.Context, client *http.Client, baseURL, alias, secret string, payload []byte) (int, string, error) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	target := strings.TrimRight(baseURL, "/") + "/webhook/" + url.PathEscape(alias)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(signed.Payload))
	if err != nil {
		return 0, "", fmt.Errorf("send: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signed.Header)

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("send: %w", err)
	}
	return resp.StatusCode, strings.TrimSpace(string(body)), nil
}
