package teams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/errs"
)

// ErrUnauthorized is returned for missing or invalid bearer tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator checks the bearer token of an inbound activity.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader, serviceURL string) error
}

// TokenVerifier validates Bot Framework channel tokens against the published signing keys.
type TokenVerifier struct {
	verifier *oidc.IDTokenVerifier
	log      *slog.Logger
}

// NewTokenVerifier fetches signing keys lazily from cfg.JWKSURL. ctx bounds
// background key refreshes and should live as long as the server.
func NewTokenVerifier(ctx context.Context, cfg config.TeamsConfig, log *slog.Logger) *TokenVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
	return newTokenVerifier(keySet, cfg.Issuer, cfg.AppID, log)
}

func newTokenVerifier(keySet oidc.KeySet, issuer, appID string, log *slog.Logger) *TokenVerifier {
	return &TokenVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{
			ClientID:             appID,
			SupportedSigningAlgs: []string{oidc.RS256},
		}),
		log: log.With("component", "teams_auth"),
	}
}

// Authenticate verifies signature, issuer, audience and expiry, and that the
// token was issued for the service URL the activity claims to come from.
func (v *TokenVerifier) Authenticate(ctx context.Context, authHeader, serviceURL string) error {
	raw, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return errs.NewUnauthorizedError("missing bearer token", ErrUnauthorized)
	}

	token, err := v.verifier.Verify(ctx, strings.TrimSpace(raw))
	if err != nil {
		v.log.WarnContext(ctx, "Rejected channel token", "error", err)
		return errs.NewUnauthorizedError("invalid bearer token", fmt.Errorf("%w: %v", ErrUnauthorized, err))
	}

	var claims struct {
		ServiceURL string `json:"serviceurl"`
	}
	if err := token.Claims(&claims); err != nil {
		return errs.NewUnauthorizedError("unreadable token claims", fmt.Errorf("%w: %v", ErrUnauthorized, err))
	}
	if claims.ServiceURL != "" && !sameServiceURL(claims.ServiceURL, serviceURL) {
		v.log.WarnContext(ctx, "Service URL mismatch", "token_service_url", claims.ServiceURL, "activity_service_url", serviceURL)
		return errs.NewUnauthorizedError("service url mismatch", ErrUnauthorized)
	}
	return nil
}

func sameServiceURL(a, b string) bool {
	return strings.EqualFold(strings.TrimRight(a, "/"), strings.TrimRight(b, "/"))
}

// NoAuth accepts every request. It backs teams.skip_auth for local emulator runs.
type NoAuth struct{}

func (NoAuth) Authenticate(context.Context, string, string) error { return nil }
