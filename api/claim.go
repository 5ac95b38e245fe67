package api

import "context"

type claimKey struct{}

// Claim marks status codes the caller handles itself. The pipeline emits no
// notice for a claimed status, so each failure produces exactly one notice.
// Claiming 401 does not stop the session from being cleared.
func Claim(ctx context.Context, codes ...int) context.Context {
	existing, _ := ctx.Value(claimKey{}).(map[int]struct{})
	claimed := make(map[int]struct{}, len(existing)+len(codes))
	for code := range existing {
		claimed[code] = struct{}{}
	}
	for _, code := range codes {
		claimed[code] = struct{}{}
	}
	return context.WithValue(ctx, claimKey{}, claimed)
}

// Claimed reports whether status was claimed on ctx.
func Claimed(ctx context.Context, status int) bool {
	claimed, _ := ctx.Value(claimKey{}).(map[int]struct{})
	_, ok := claimed[status]
	return ok
}
