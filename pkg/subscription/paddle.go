package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/google/uuid"
)

// PaddleConfig holds configuration for the Paddle billing provider.
// Each plan tier maps to a Paddle catalog price.
type PaddleConfig struct {
	APIKey         string `env:"PADDLE_API_KEY,required"`
	WebhookSecret  string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment    string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PriceSolo      string `env:"PADDLE_PRICE_SOLO,required"`
	PriceDiscovery string `env:"PADDLE_PRICE_DISCOVERY,required"`
	PriceEscala    string `env:"PADDLE_PRICE_ESCALA,required"`
	SuccessURL     string `env:"PADDLE_SUCCESS_URL"`
}

func (c PaddleConfig) priceIDs() map[PlanType]string {
	return map[PlanType]string{
		PlanSolo:      c.PriceSolo,
		PlanDiscovery: c.PriceDiscovery,
		PlanEscala:    c.PriceEscala,
	}
}

// PaddleProvider creates checkouts and verifies webhooks with Paddle.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   PaddleConfig
	prices   map[PlanType]string
	plans    map[string]PlanType
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	prices := config.priceIDs()
	plans := make(map[string]PlanType, len(prices))
	for plan, priceID := range prices {
		if priceID == "" {
			return nil, fmt.Errorf("%w: plan %s", ErrMissingPriceID, plan)
		}
		plans[priceID] = plan
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, config.Environment)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		config:   config,
		prices:   prices,
		plans:    plans,
	}, nil
}

// PlanForPrice resolves a Paddle price ID to a plan tier.
func (p *PaddleProvider) PlanForPrice(priceID string) (PlanType, bool) {
	plan, ok := p.plans[priceID]
	return plan, ok
}

// CreateCheckout creates a Paddle transaction for the requested plan and
// returns its hosted checkout URL. The requested amount must match the
// catalog price of the plan.
func (p *PaddleProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.UserID == uuid.Nil {
		return "", ErrMissingUserID
	}
	priceID, ok := p.prices[req.PlanType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlanType, req.PlanType)
	}
	if want := PriceFor(req.PlanType).Major(); math.Abs(req.Amount-want) > 0.005 {
		return "", fmt.Errorf("%w: got %.2f, want %.2f", ErrAmountMismatch, req.Amount, want)
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id":   req.UserID.String(),
			"plan_type": string(req.PlanType),
		},
	}
	if p.config.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(p.config.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return "", fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil || *transaction.Checkout.URL == "" {
		return "", ErrNoCheckoutURL
	}
	return *transaction.Checkout.URL, nil
}

// ParseWebhookRequest verifies the Paddle-Signature header of req and parses its body.
func (p *PaddleProvider) ParseWebhookRequest(req *http.Request) (*WebhookEvent, error) {
	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	return p.ParseWebhook(body)
}

type paddleNotification struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type paddleBillingPeriod struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type paddleSubscriptionData struct {
	ID                   string               `json:"id"`
	Status               string               `json:"status"`
	CustomData           map[string]any       `json:"custom_data"`
	CurrentBillingPeriod *paddleBillingPeriod `json:"current_billing_period"`
	Items                []struct {
		Price struct {
			ID string `json:"id"`
		} `json:"price"`
	} `json:"items"`
}

type paddleTransactionData struct {
	ID             string         `json:"id"`
	Status         string         `json:"status"`
	SubscriptionID *string        `json:"subscription_id"`
	CustomData     map[string]any `json:"custom_data"`
	CurrencyCode   string         `json:"currency_code"`
	BilledAt       *time.Time     `json:"billed_at"`
	Items          []struct {
		PriceID string `json:"price_id"`
		Price   struct {
			ID string `json:"id"`
		} `json:"price"`
	} `json:"items"`
	Details struct {
		Totals struct {
			GrandTotal   string `json:"grand_total"`
			CurrencyCode string `json:"currency_code"`
		} `json:"totals"`
	} `json:"details"`
	Payments []struct {
		MethodDetails struct {
			Type string `json:"type"`
		} `json:"method_details"`
	} `json:"payments"`
}

// ParseWebhook parses an already verified Paddle notification payload.
func (p *PaddleProvider) ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var n paddleNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}

	event := &WebhookEvent{
		ID:         n.EventID,
		Type:       WebhookEventType(n.EventType),
		OccurredAt: n.OccurredAt,
	}

	switch {
	case strings.HasPrefix(n.EventType, "subscription."):
		var data paddleSubscriptionData
		if err := json.Unmarshal(n.Data, &data); err != nil {
			return nil, errors.Join(ErrInvalidWebhookPayload, err)
		}
		event.SubscriptionID = data.ID
		event.Status = mapPaddleStatus(data.Status)
		event.UserID = customUserID(data.CustomData)
		if data.CurrentBillingPeriod != nil {
			event.PeriodStart = data.CurrentBillingPeriod.StartsAt
			event.PeriodEnd = data.CurrentBillingPeriod.EndsAt
		}
		if len(data.Items) > 0 {
			event.PlanType, _ = p.PlanForPrice(data.Items[0].Price.ID)
		}
		if event.PlanType == "" {
			event.PlanType = customPlanType(data.CustomData)
		}

	case strings.HasPrefix(n.EventType, "transaction."):
		var data paddleTransactionData
		if err := json.Unmarshal(n.Data, &data); err != nil {
			return nil, errors.Join(ErrInvalidWebhookPayload, err)
		}
		event.TransactionID = data.ID
		event.TransactionStatus = data.Status
		if data.SubscriptionID != nil {
			event.SubscriptionID = *data.SubscriptionID
		}
		event.UserID = customUserID(data.CustomData)
		if len(data.Items) > 0 {
			priceID := data.Items[0].PriceID
			if priceID == "" {
				priceID = data.Items[0].Price.ID
			}
			event.PlanType, _ = p.PlanForPrice(priceID)
		}
		if event.PlanType == "" {
			event.PlanType = customPlanType(data.CustomData)
		}

		currency := data.Details.Totals.CurrencyCode
		if currency == "" {
			currency = data.CurrencyCode
		}
		amount, _ := strconv.ParseInt(data.Details.Totals.GrandTotal, 10, 64)
		event.Amount = Money{Amount: amount, Currency: currency}
		if len(data.Payments) > 0 {
			event.Method = data.Payments[0].MethodDetails.Type
		}
		if data.BilledAt != nil {
			event.BilledAt = *data.BilledAt
		}
	}

	return event, nil
}

func customUserID(data map[string]any) uuid.UUID {
	raw, _ := data["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func customPlanType(data map[string]any) PlanType {
	raw, _ := data["plan_type"].(string)
	plan, err := ParsePlanType(raw)
	if err != nil {
		return ""
	}
	return plan
}

// mapPaddleStatus maps a Paddle subscription status to Status.
func mapPaddleStatus(paddleStatus string) Status {
	switch strings.ToLower(paddleStatus) {
	case "active", "trialing":
		return StatusActive
	case "past_due", "paused":
		return StatusInactive
	case "canceled", "cancelled":
		return StatusCanceled
	case "expired":
		return StatusExpired
	default:
		return StatusInactive
	}
}
