package identity

import "context"

// ClaimProviderFunc adapts a function into a ClaimProvider.
type ClaimProviderFunc func(ctx context.Context, subject Subject) (map[string]any, error)

// Claims satisfies the ClaimProvider interface.
func (f ClaimProviderFunc) Claims(ctx context.Context, subject Subject) (map[string]any, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx, subject)
}

// StaticClaims returns a provider that contributes a fixed claim set, useful
// for service wide claims like a tenant or deployment marker.
func StaticClaims(claims map[string]any) ClaimProvider {
	return ClaimProviderFunc(func(context.Context, Subject) (map[string]any, error) {
		return claims, nil
	})
}

// composeProviderClaims runs providers in registration order and merges their
// contributions into the claim extension map. A later provider's key
// replaces an earlier provider's same key; keys naming base payload fields
// are dropped so providers can never clobber identity data.
func composeProviderClaims(ctx context.Context, subject Subject, providers []ClaimProvider) (map[string]any, error) {
	if len(providers) == 0 {
		return nil, nil
	}

	merged := map[string]any{}
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		contribution, err := provider.Claims(ctx, subject)
		if err != nil {
			return nil, err
		}
		for key, value := range contribution {
			if _, reserved := baseClaimKeys[key]; reserved {
				continue
			}
			merged[key] = value
		}
	}

	if len(merged) == 0 {
		return nil, nil
	}
	return merged, nil
}
