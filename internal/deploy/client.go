package deploy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/metrics"

	"github.com/go-resty/resty/v2"
)

// WorkflowRef addresses one workflow resource.
type WorkflowRef struct {
	SubscriptionID string
	ResourceGroup  string
	Name           string
}

func (r WorkflowRef) path() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Logic/workflows/%s",
		url.PathEscape(r.SubscriptionID), url.PathEscape(r.ResourceGroup), url.PathEscape(r.Name))
}

type WorkflowClient interface {
	Upsert(ctx context.Context, token string, ref WorkflowRef, document []byte) error
	Get(ctx context.Context, token string, ref WorkflowRef) ([]byte, error)
}

// ResourceClient talks to the resource-management API. It sends one request
// per call with the caller's bearer token and never retries.
type ResourceClient struct {
	http       *resty.Client
	apiVersion string
}

func NewResourceClient(endpoint, apiVersion string, timeout time.Duration) *ResourceClient {
	c := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &ResourceClient{http: c, apiVersion: apiVersion}
}

func (c *ResourceClient) Upsert(ctx context.Context, token string, ref WorkflowRef, document []byte) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("api-version", c.apiVersion).
		SetBody(document).
		Put(ref.path())
	if err != nil {
		metrics.RemoteCalls.WithLabelValues(http.MethodPut, "error").Inc()
		return transportError(ctx, "PUT", err)
	}

	metrics.RemoteCalls.WithLabelValues(http.MethodPut, strconv.Itoa(resp.StatusCode())).Inc()
	if !resp.IsSuccess() {
		return apperr.RemoteAPI("resource API rejected PUT", resp.StatusCode(), resp.String())
	}
	return nil
}

func (c *ResourceClient) Get(ctx context.Context, token string, ref WorkflowRef) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("api-version", c.apiVersion).
		Get(ref.path())
	if err != nil {
		metrics.RemoteCalls.WithLabelValues(http.MethodGet, "error").Inc()
		return nil, transportError(ctx, "GET", err)
	}

	metrics.RemoteCalls.WithLabelValues(http.MethodGet, strconv.Itoa(resp.StatusCode())).Inc()
	if !resp.IsSuccess() {
		return nil, apperr.RemoteAPI("resource API rejected GET", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

func transportError(ctx context.Context, method string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return apperr.Transport(method+" timed out", context.DeadlineExceeded)
	}
	return apperr.Transport(method+" failed", err)
}
