package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/josh-kwaku/ledgersync/internal/domain"
)

// VerifyNotification checks the signature header against secret and decodes
// the payload. API version mismatches are accepted because ledgers on
// different versions post to the same gateway.
func VerifyNotification(payload []byte, header, secret string, tolerance time.Duration) (domain.Notification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.Notification{}, err
	}
	return NotificationFromEvent(event)
}

// ParseNotification decodes an unsigned event payload, as stored by a ledger's
// event log or a captured dump.
func ParseNotification(payload []byte) (domain.Notification, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.Notification{}, fmt.Errorf("ParseNotification: %w", err)
	}
	return NotificationFromEvent(event)
}

func NotificationFromEvent(event stripe.Event) (domain.Notification, error) {
	n := domain.Notification{
		ID:      event.ID,
		Type:    domain.EventKind(event.Type),
		Account: event.Account,
		Created: event.Created,
	}
	if n.ID == "" || n.Type == "" {
		return domain.Notification{}, fmt.Errorf("NotificationFromEvent: %w: event id and type are required", domain.ErrInvalidRequest)
	}
	if event.Data == nil {
		return n, nil
	}
	if len(event.Data.Raw) > 0 {
		n.Object = append(json.RawMessage(nil), event.Data.Raw...)
	} else if event.Data.Object != nil {
		raw, err := json.Marshal(event.Data.Object)
		if err != nil {
			return domain.Notification{}, fmt.Errorf("NotificationFromEvent: %w", err)
		}
		n.Object = raw
	}
	if len(event.Data.PreviousAttributes) > 0 {
		raw, err := json.Marshal(event.Data.PreviousAttributes)
		if err != nil {
			return domain.Notification{}, fmt.Errorf("NotificationFromEvent: %w", err)
		}
		n.PreviousAttributes = raw
	}
	return n, nil
}
