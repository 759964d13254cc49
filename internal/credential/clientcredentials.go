package credential

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tenant-deployment-system/internal/apperr"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentialsProvider runs a plain OAuth2 client-credentials grant
// against a configurable token endpoint. Tokens are reused until they expire.
type ClientCredentialsProvider struct {
	source   oauth2.TokenSource
	tokenURL string
}

func NewClientCredentialsProvider(tokenURL, clientID, clientSecret, scope string, timeout time.Duration) (*ClientCredentialsProvider, error) {
	if tokenURL == "" || clientID == "" || clientSecret == "" {
		return nil, errors.New("token url, client id and client secret are required")
	}

	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if scope != "" {
		cc.Scopes = []string{scope}
	}

	hc := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)

	return &ClientCredentialsProvider{source: cc.TokenSource(ctx), tokenURL: tokenURL}, nil
}

func (p *ClientCredentialsProvider) Token(ctx context.Context) (Token, error) {
	type result struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan result, 1)
	go func() {
		tok, err := p.source.Token()
		done <- result{tok, err}
	}()

	select {
	case <-ctx.Done():
		return Token{}, apperr.Auth("token request cancelled", ctx.Err())
	case r := <-done:
		if r.err != nil {
			zap.L().Error("client credentials token request failed", zap.String("token_url", p.tokenURL), zap.Error(r.err))
			return Token{}, apperr.Auth("failed to acquire access token", retrieveStatus(r.err))
		}
		return Token{AccessToken: r.tok.AccessToken, ExpiresOn: r.tok.Expiry}, nil
	}
}

// retrieveStatus keeps only the HTTP status of a token endpoint rejection so
// that echoed request parameters never reach callers.
func retrieveStatus(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return errors.New(re.Response.Status)
	}
	return errors.New("token endpoint unreachable")
}
