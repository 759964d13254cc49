// Package credential obtains bearer tokens for the resource-management API.
package credential

import (
	"context"
	"fmt"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/config"
)

type Token struct {
	AccessToken string
	ExpiresOn   time.Time
}

// Provider hands out a bearer token per call. Callers pass the token on the
// request that needs it and never install it as a client default.
type Provider interface {
	Token(ctx context.Context) (Token, error)
}

// StaticProvider returns a fixed token. Used in tests and local development.
type StaticProvider struct {
	AccessToken string
	Err         error
}

func (p *StaticProvider) Token(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, apperr.Auth("failed to acquire access token", err)
	}
	if p.Err != nil {
		return Token{}, apperr.Auth("failed to acquire access token", p.Err)
	}
	return Token{AccessToken: p.AccessToken, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// NewProvider selects the provider named by azure.mode.
func NewProvider(cfg *config.Config) (Provider, error) {
	az := cfg.Azure
	switch az.Mode {
	case "", "azure":
		return NewAzureProvider(az.TenantID, az.ClientID, az.ClientSecret, az.Scope, az.TokenTimeout)
	case "oauth2":
		return NewClientCredentialsProvider(az.TokenURL, az.ClientID, az.ClientSecret, az.Scope, az.TokenTimeout)
	default:
		return nil, fmt.Errorf("unsupported azure auth mode %q", az.Mode)
	}
}
