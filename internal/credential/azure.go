package credential

import (
	"context"
	"errors"
	"time"

	"tenant-deployment-system/internal/apperr"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"go.uber.org/zap"
)

// AzureProvider exchanges an app registration's client secret for a token
// through Azure AD. azidentity caches tokens until shortly before expiry.
type AzureProvider struct {
	cred    azcore.TokenCredential
	scope   string
	timeout time.Duration
}

func NewAzureProvider(tenantID, clientID, clientSecret, scope string, timeout time.Duration) (*AzureProvider, error) {
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, errors.New("azure tenant id, client id and client secret are required")
	}
	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, apperr.Auth("invalid client secret credential configuration", nil)
	}
	return newAzureProvider(cred, scope, timeout), nil
}

func newAzureProvider(cred azcore.TokenCredential, scope string, timeout time.Duration) *AzureProvider {
	return &AzureProvider{cred: cred, scope: scope, timeout: timeout}
}

func (p *AzureProvider) Token(ctx context.Context) (Token, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	tok, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{p.scope}})
	if err != nil {
		zap.L().Error("azure token request failed", zap.String("scope", p.scope), zap.Error(err))
		return Token{}, apperr.Auth("failed to acquire access token", ctx.Err())
	}
	return Token{AccessToken: tok.Token, ExpiresOn: tok.ExpiresOn}, nil
}
