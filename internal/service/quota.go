package service

import "context"

// QuotaChecker decides whether an owner may create another link. The real
// implementation lives with the subscription/plan system; this core only
// consumes the contract.
type QuotaChecker interface {
	Allow(ctx context.Context, ownerID string) (bool, error)
}

// UnlimitedQuota permits every creation. It is the default when no plan
// system is wired in.
type UnlimitedQuota struct{}

func (UnlimitedQuota) Allow(context.Context, string) (bool, error) { return true, nil }
