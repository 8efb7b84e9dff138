package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

// ErrUpstreamUnavailable signals that the organizational service could not be
// reached or answered with an error. Callers are expected to degrade rather
// than fail their own request.
var ErrUpstreamUnavailable = errors.New("organizational service unavailable")

// OrganizationClient fetches the read-only organization and site tree from
// the organizational service.
type OrganizationClient interface {
	Organizations(ctx context.Context) ([]types.Organization, error)
}

type orgClient struct {
	url        string
	httpClient http.Client
}

var tracer = otel.Tracer("alarm-mgmt-client")

func NewOrganizationClient(orgSvcUrl string) OrganizationClient {
	return &orgClient{
		url: orgSvcUrl,
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *orgClient) Organizations(ctx context.Context) ([]types.Organization, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-organizations")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	url := c.url + "/api/v0/organizations"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("failed to create http request: %w", err)
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		return nil, err
	}

	var result struct {
		Organizations []types.Organization `json:"organizations"`
	}

	err = json.Unmarshal(respBody, &result)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal response body: %w", err)
		return nil, err
	}

	return result.Organizations, nil
}
