package solarnet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/taybkho/CI-CD-Energy/pkg/common"
	"github.com/taybkho/CI-CD-Energy/pkg/log"
	"github.com/taybkho/CI-CD-Energy/pkg/types"
)

const datumListPath = "solarquery/api/v1/sec/datum/list"

// ErrTransport is wrapped by every error that comes out of Extract.
var ErrTransport = errors.New("solarnetwork transport error")

// Extractor fetches datum rows for an encoded query.
type Extractor interface {
	Extract(ctx context.Context, query string) (Response, error)
}

// Response is the data portion of a datum list reply.
type Response struct {
	TotalResults        int64
	StartingOffset      int64
	ReturnedResultCount int64
	Results             []types.Record
}

// Client implements Extractor against the SolarNetwork query API using
// SNWS2 token authentication.
type Client struct {
	client  *http.Client
	baseURL string
	signer  signer
	now     func() time.Time
}

var _ Extractor = (*Client)(nil)

// NewClient returns a Client for baseURL authenticated with token and secret.
func NewClient(baseURL, token, secret string, timeout time.Duration) *Client {
	return &Client{
		client:  common.HTTPClient(timeout),
		baseURL: baseURL,
		signer:  signer{token: token, secret: secret},
		now:     time.Now,
	}
}

// Configured registers the SolarNetwork flags and returns a Client that is
// filled in once lflag.Configure runs.
func Configured() *Client {
	c := &Client{now: time.Now}

	baseURL := lflag.String("solarnetwork-url", "https://data.solarnetwork.net", "Base URL of the SolarNetwork API")
	timeout := lflag.Duration("solarnetwork-timeout", time.Minute, "Timeout for requests to the SolarNetwork API")
	token := lflag.RequiredString("token", "SolarNetwork API token")
	secret := lflag.RequiredString("secret", "SolarNetwork API token secret")

	lflag.Do(func() {
		c.baseURL = *baseURL
		c.client = common.HTTPClient(*timeout)
		c.signer = signer{token: *token, secret: *secret}
		if err := c.Validate(); err != nil {
			panic(fmt.Sprintf("solarnetwork validation failed: %v", err))
		}
	})

	return c
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.baseURL == "" {
		return errors.New("solarnetwork-url is required")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("failed to parse solarnetwork url (%s): %w", c.baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("solarnetwork url must be absolute: %s", c.baseURL)
	}
	if c.signer.token == "" {
		return errors.New("token is required")
	}
	if c.signer.secret == "" {
		return errors.New("secret is required")
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID returns a context whose requests carry the given
// X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type datumListResponse struct {
	Success bool           `json:"success"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    *datumListData `json:"data"`
}

type datumListData struct {
	TotalResults        int64          `json:"totalResults"`
	StartingOffset      int64          `json:"startingOffset"`
	ReturnedResultCount int64          `json:"returnedResultCount"`
	Results             []types.Record `json:"results"`
}

// Extract performs one signed datum list request. There are no retries; any
// failure is returned wrapping ErrTransport.
func (c *Client) Extract(ctx context.Context, query string) (Response, error) {
	req, err := c.newGetRequest(ctx, datumListPath, query)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var dl datumListData
	if err := c.doRequest(req, &dl); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"solarnetwork datum list",
		slog.Int64("totalResults", dl.TotalResults),
		slog.Int64("returnedResultCount", dl.ReturnedResultCount),
		slog.Int("results", len(dl.Results)),
	)

	return Response{
		TotalResults:        dl.TotalResults,
		StartingOffset:      dl.StartingOffset,
		ReturnedResultCount: dl.ReturnedResultCount,
		Results:             dl.Results,
	}, nil
}

func (c *Client) newGetRequest(ctx context.Context, endpoint, rawQuery string) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path, err = url.JoinPath(u.Path, endpoint)
	if err != nil {
		return nil, err
	}
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	return req, nil
}

func (c *Client) doRequest(req *http.Request, dest *datumListData) error {
	ctx := req.Context()
	c.signer.sign(req, c.now())

	log.Ctx(ctx).DebugContext(ctx, "requesting solarnetwork", slog.String("url", req.URL.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var dr datumListResponse
	decodeErr := json.Unmarshal(body, &dr)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && dr.Message != "" {
			log.Ctx(ctx).ErrorContext(ctx, "solarnetwork api error", slog.Int("status", resp.StatusCode), slog.String("message", dr.Message))
			return fmt.Errorf("status %d: %s", resp.StatusCode, dr.Message)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode solarnetwork response", slog.Any("error", decodeErr), slog.String("body", string(body)))
		return fmt.Errorf("failed to decode solarnetwork response: %w", decodeErr)
	}
	if !dr.Success {
		if dr.Message == "" {
			log.Ctx(ctx).ErrorContext(ctx, "solarnetwork api unknown error", slog.String("body", string(body)))
			return errors.New("solarnetwork unknown error")
		}
		log.Ctx(ctx).ErrorContext(ctx, "solarnetwork api error", slog.String("code", dr.Code), slog.String("message", dr.Message))
		return fmt.Errorf("solarnetwork api error: %s", dr.Message)
	}

	if dr.Data != nil {
		*dest = *dr.Data
	}
	return nil
}
