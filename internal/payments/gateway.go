// Package payments talks to the external payment processor. Charges are
// always made outside any database transaction.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/model"
)

// ErrUnavailable marks gateway failures where the charge outcome is unknown.
var ErrUnavailable = errors.New("payment gateway unavailable")

type ChargeRequest struct {
	BookingID uuid.UUID
	Amount    float64
	Method    model.PaymentMethod
}

// Reference is the idempotency key sent to the processor.
func (r ChargeRequest) Reference() string { return "booking-" + r.BookingID.String() }

type ChargeResult struct {
	Approved      bool
	TransactionID string
	// Reason is set for declined charges.
	Reason string
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// HTTPGateway — JSON API процессора: POST {base}/v1/charges.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logrus.Logger
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration, log *logrus.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type chargePayload struct {
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (g *HTTPGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	body, err := json.Marshal(chargePayload{
		Reference: req.Reference(),
		Amount:    fmt.Sprintf("%.2f", req.Amount),
		Method:    string(req.Method),
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.Reference())
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity:
		var out chargeResponse
		_ = json.Unmarshal(raw, &out)
		if out.Reason == "" {
			out.Reason = "declined by processor"
		}
		return &ChargeResult{Approved: false, TransactionID: out.ID, Reason: out.Reason}, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("charge rejected: status %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var out chargeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	g.log.WithFields(logrus.Fields{
		"booking_id": req.BookingID,
		"charge_id":  out.ID,
		"status":     out.Status,
	}).Info("payment gateway answered")

	if out.Status != "approved" && out.Status != "succeeded" {
		reason := out.Reason
		if reason == "" {
			reason = "charge status " + out.Status
		}
		return &ChargeResult{Approved: false, TransactionID: out.ID, Reason: reason}, nil
	}
	return &ChargeResult{Approved: true, TransactionID: out.ID}, nil
}

// SandboxGateway approves every charge. Used when no processor is configured.
type SandboxGateway struct{}

func (SandboxGateway) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	return &ChargeResult{Approved: true, TransactionID: "sandbox-" + req.BookingID.String()}, nil
}
