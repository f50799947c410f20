package arab_coders_client

import (
	"time"

	"github.com/arabcoders/contesthub/go/clients"
)

type Options struct {
	Token      string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	Endpoints  Endpoints
}

type ArabCodersClient struct {
	*clients.BaseClient
	endpoints Endpoints
}

func NewArabCodersClient(baseURL string, opts Options) *ArabCodersClient {
	client := &ArabCodersClient{
		BaseClient: clients.NewBaseClient(baseURL),
		endpoints:  opts.Endpoints.WithDefaults(),
	}

	client.SetHeader(AcceptHeader, "application/json")
	client.SetHeader(UserAgentHeader, UserAgent)
	if opts.Token != "" {
		client.SetHeader(AuthorizationHeader, "Bearer "+opts.Token)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	client.SetRateLimit(opts.RatePerSec, opts.Burst)

	return client
}

func (c *ArabCodersClient) Endpoints() Endpoints {
	return c.endpoints
}
