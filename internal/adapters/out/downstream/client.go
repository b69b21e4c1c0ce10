// Package downstream calls confirmation dependencies (payments, inventory)
// over HTTP. Status codes are reported as-is; retry decisions belong to the
// gateway wrapping the client.
package downstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oms/internal/core/ports"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const maxErrorBody = 256

type Config struct {
	Name    string
	BaseURL string
	Timeout time.Duration
}

func (c Config) Validate() error {
	var errList []error
	if c.Name == "" {
		errList = append(errList, errors.New("downstream name is required"))
	}
	if c.BaseURL == "" {
		errList = append(errList, fmt.Errorf("%s: base url is required", c.Name))
	}
	if c.Timeout <= 0 {
		errList = append(errList, fmt.Errorf("%s: timeout must be positive", c.Name))
	}
	return errors.Join(errList...)
}

type confirmationRequest struct {
	OrderID string          `json:"orderId"`
	Command string          `json:"command"`
	Amount  decimal.Decimal `json:"amount"`
}

// Client implements ports.ConfirmationService with POST {base}/confirmations.
type Client struct {
	name string
	http *resty.Client
}

var _ ports.ConfirmationService = (*Client)(nil)

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{name: config.Name, http: client}, nil
}

func (c *Client) Name() string {
	return c.name
}

// Confirm returns *ports.DownstreamCallError for transport failures (status
// zero) and for every non-2xx answer.
func (c *Client) Confirm(ctx context.Context, req ports.ConfirmationRequest) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.IdempotencyKey).
		SetBody(confirmationRequest{
			OrderID: req.OrderID.String(),
			Command: req.Command.String(),
			Amount:  req.Amount,
		}).
		Post("/confirmations")
	if err != nil {
		return &ports.DownstreamCallError{Dependency: c.name, Err: err}
	}

	if resp.IsSuccess() {
		return nil
	}

	body := resp.String()
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var cause error
	if body != "" {
		cause = errors.New(body)
	}
	return &ports.DownstreamCallError{Dependency: c.name, StatusCode: resp.StatusCode(), Err: cause}
}
