// Package credentials resolves the optional billing API key for an operator.
//
// Absence of a key is a normal state meaning "live billing integration
// disabled", never an error. Lookup is an explicit two-tier chain: the
// operator-scoped store first, then a single process-wide default injected
// at construction.
package credentials

import (
	"context"
	"fmt"
	"strings"
)

// BillingKeyName is the credential store entry holding the billing API key.
const BillingKeyName = "billing_api_key"

// Store is the operator-scoped credential collaborator. Implementations own
// persistence and value-length limits; the resolver only reads.
type Store interface {
	// Get returns the named credential for an operator, reporting false
	// when no such entry exists.
	Get(ctx context.Context, operatorID, name string) (string, bool, error)
}

type Resolver struct {
	store          Store
	processDefault string
}

// NewResolver builds a resolver over the given store. processDefault may be
// empty, which disables the second tier.
func NewResolver(store Store, processDefault string) *Resolver {
	return &Resolver{
		store:          store,
		processDefault: strings.TrimSpace(processDefault),
	}
}

// ResolveKey returns the billing API key for an operator. The boolean
// reports presence; (_, false, nil) means no key exists anywhere and the
// live billing tier should be skipped. Only store failures return an error.
func (r *Resolver) ResolveKey(ctx context.Context, operatorID string) (string, bool, error) {
	if r.store != nil {
		key, ok, err := r.store.Get(ctx, operatorID, BillingKeyName)
		if err != nil {
			return "", false, fmt.Errorf("credential store lookup: %w", err)
		}
		if ok && strings.TrimSpace(key) != "" {
			return key, true, nil
		}
	}
	if r.processDefault != "" {
		return r.processDefault, true, nil
	}
	return "", false, nil
}
