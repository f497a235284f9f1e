package ledger

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/form"
)

var idempotencyNamespace = uuid.MustParse("6f1c2b8e-2f43-4c57-9d0e-6a4f1d2b9c11")

type scopeKey struct{}

// scope derives idempotency keys for every write made while handling one
// notification. Replaying the same notification issues the same keys, so a
// write that already succeeded remotely returns its original result.
type scope struct {
	id string

	mu   sync.Mutex
	seen map[string]int
}

// WithIdempotencyScope makes writes issued under ctx carry keys derived from id.
func WithIdempotencyScope(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &scope{id: id, seen: map[string]int{}})
}

func idempotencyKey(ctx context.Context, alias, path string, params stripe.ParamsContainer) (string, bool) {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return "", false
	}

	values := &form.Values{}
	form.AppendTo(values, params)
	request := alias + " " + path + "?" + values.Encode()

	s.mu.Lock()
	n := s.seen[request]
	s.seen[request] = n + 1
	s.mu.Unlock()

	name := s.id + "\n" + request + "\n" + strconv.Itoa(n)
	return uuid.NewSHA1(idempotencyNamespace, []byte(name)).String(), true
}
