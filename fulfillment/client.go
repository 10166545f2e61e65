// Package fulfillment submits accepted orders to the external pizza factory.
// The factory answers 2xx with a signed receipt or any other status with a
// rejection message; both carry a report URL.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"pizza-franchise-api/apperr"
)

// maxBodyBytes bounds how much of a factory response is read.
const maxBodyBytes = 1 << 20

type Diner struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Item struct {
	MenuID      uint    `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type Order struct {
	Reference   string `json:"id"`
	FranchiseID uint   `json:"franchiseId"`
	StoreID     uint   `json:"storeId"`
	Items       []Item `json:"items"`
}

type Request struct {
	Diner Diner `json:"diner"`
	Order Order `json:"order"`
}

// Receipt is the factory's acceptance.
type Receipt struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

type rejection struct {
	Message   string `json:"message"`
	ReportURL string `json:"reportUrl"`
}

// Client talks to the factory over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
	apiKey     string
}

// NewClient targets {baseURL}/api/order and authenticates with apiKey.
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   strings.TrimRight(baseURL, "/") + "/api/order",
		apiKey:     apiKey,
	}
}

// Submit sends the order. A rejection is a FulfillmentFailure carrying the
// factory's message and report URL. Transport errors and timeouts are
// FulfillmentFailure marked retryable.
func (c *Client) Submit(ctx context.Context, order Request) (*Receipt, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "encode fulfillment request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "build fulfillment request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("fulfillment request failed",
			slog.String("error", err.Error()),
			slog.String("reference", order.Order.Reference),
		)
		detail := "fulfillment service unreachable"
		if errors.Is(err, context.DeadlineExceeded) {
			detail = "fulfillment service timed out"
		}
		return nil, &apperr.Error{Kind: apperr.KindFulfillmentFailure, Detail: detail, Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindFulfillmentFailure, Detail: "fulfillment response unreadable", Retryable: true, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var rej rejection
		_ = json.Unmarshal(body, &rej)
		if rej.Message == "" {
			rej.Message = fmt.Sprintf("fulfillment rejected the order with status %d", resp.StatusCode)
		}
		c.logger.Warn("fulfillment rejected order",
			slog.Int("http_status", resp.StatusCode),
			slog.String("reference", order.Order.Reference),
			slog.String("report_url", rej.ReportURL),
		)
		return nil, &apperr.Error{
			Kind:      apperr.KindFulfillmentFailure,
			Detail:    rej.Message,
			ReportURL: rej.ReportURL,
			Retryable: resp.StatusCode >= 500,
		}
	}

	var receipt Receipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		c.logger.Error("fulfillment response could not be parsed",
			slog.String("error", err.Error()),
		)
		return nil, &apperr.Error{Kind: apperr.KindFulfillmentFailure, Detail: "fulfillment response malformed", Cause: err}
	}
	return &receipt, nil
}
