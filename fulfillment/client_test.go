package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pizza-franchise-api/apperr"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func sampleRequest() Request {
	return Request{
		Diner: Diner{ID: 4, Name: "pizza diner", Email: "d@jwt.com"},
		Order: Order{
			Reference:   "ref-1",
			FranchiseID: 1,
			StoreID:     2,
			Items:       []Item{{MenuID: 1, Description: "Veggie", Price: 0.05}},
		},
	}
}

func TestClient_SubmitAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/order" {
			t.Errorf("path = %s, want /api/order", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer factory-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Diner.ID != 4 || req.Order.Reference != "ref-1" || len(req.Order.Items) != 1 {
			t.Errorf("unexpected body %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"jwt": "receipt.jwt.value", "reportUrl": "http://factory/report/1"})
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL+"/", "factory-key")

	receipt, err := c.Submit(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.JWT != "receipt.jwt.value" || receipt.ReportURL != "http://factory/report/1" {
		t.Errorf("receipt = %+v", receipt)
	}
}

func TestClient_SubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "oven on fire", "reportUrl": "http://factory/report/2"})
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL, "")

	_, err := c.Submit(context.Background(), sampleRequest())
	if !errors.Is(err, apperr.FulfillmentFailure) {
		t.Fatalf("expected FulfillmentFailure, got %v", err)
	}
	e, _ := apperr.As(err)
	if e.Detail != "oven on fire" || e.ReportURL != "http://factory/report/2" {
		t.Errorf("error = %+v", e)
	}
	if e.Retryable {
		t.Error("a 4xx rejection is not retryable")
	}
	if buf.Len() == 0 {
		t.Error("a rejection should be logged")
	}
}

func TestClient_SubmitRejectedWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL, "")

	_, err := c.Submit(context.Background(), sampleRequest())
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindFulfillmentFailure {
		t.Fatalf("expected FulfillmentFailure, got %v", err)
	}
	if !e.Retryable {
		t.Error("a 5xx rejection is retryable")
	}
	if e.Detail == "" {
		t.Error("a rejection without a message still needs detail")
	}
}

func TestClient_SubmitTimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), server.URL, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Submit(ctx, sampleRequest())
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindFulfillmentFailure {
		t.Fatalf("expected FulfillmentFailure, got %v", err)
	}
	if !e.Retryable {
		t.Error("a timeout is retryable")
	}
}

func TestClient_SubmitUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	var buf bytes.Buffer
	c := NewClient(nil, newTestLogger(&buf), url, "")

	_, err := c.Submit(context.Background(), sampleRequest())
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindFulfillmentFailure || !e.Retryable {
		t.Fatalf("expected retryable FulfillmentFailure, got %v", err)
	}
}
