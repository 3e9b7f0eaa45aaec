// Package stripegw talks to Stripe Checkout on behalf of the payment service.
package stripegw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/checkout"
	"github.com/corray333/backend-labs/storefront/pkg/breaker"
	"github.com/sony/gobreaker"
	"github.com/spf13/viper"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

var (
	errMissingSecret   = errors.New("stripe: secret key is required")
	errNilSession      = errors.New("stripe: empty session response")
	errEmptySessionID  = errors.New("stripe: session id is required")
	errWebhookNoSecret = errors.New("stripe: webhook secret is not configured")
)

// sessionAPI is the subset of the Stripe checkout session client we use.
type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Config holds the adapter settings.
type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Timeout       time.Duration
}

// Client creates and inspects Stripe Checkout sessions.
type Client struct {
	sessions      sessionAPI
	breaker       *gobreaker.CircuitBreaker
	timeout       time.Duration
	successURL    string
	cancelURL     string
	webhookSecret string
}

// MustNewClient builds the adapter from env secrets and viper settings.
func MustNewClient() *Client {
	timeout := time.Duration(viper.GetInt("stripe.timeout_seconds")) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cfg := Config{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SuccessURL:    viper.GetString("stripe.success_url"),
		CancelURL:     viper.GetString("stripe.cancel_url"),
		Timeout:       timeout,
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		panic(errMissingSecret)
	}

	backends := stripe.NewBackends(&http.Client{Timeout: cfg.Timeout})
	sc := client.New(cfg.SecretKey, backends)

	return NewClient(sc.CheckoutSessions, cfg)
}

// NewClient wires the adapter around an existing session API, used directly by tests.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func NewClient(sessions sessionAPI, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		sessions:      sessions,
		timeout:       cfg.Timeout,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		webhookSecret: cfg.WebhookSecret,
		breaker: breaker.New(breaker.Config{
			Name:        "stripe",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
	}
}

// CreateCheckoutSession creates a hosted payment page for the request.
func (c *Client) CreateCheckoutSession(
	ctx context.Context,
	req checkout.SessionRequest,
) (checkout.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	currency := strings.ToLower(req.Currency)
	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := breaker.Execute(c.breaker, func() (*stripe.CheckoutSession, error) {
		return c.sessions.New(params)
	})
	if err != nil {
		return checkout.Session{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	if sess == nil {
		return checkout.Session{}, errNilSession
	}

	out := checkout.Session{ID: sess.ID, URL: sess.URL}
	if sess.ExpiresAt > 0 {
		out.ExpiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}

	return out, nil
}

// RetrieveSession reads the current state of a session from Stripe.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (checkout.SessionState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return checkout.SessionState{}, errEmptySessionID
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := breaker.Execute(c.breaker, func() (*stripe.CheckoutSession, error) {
		return c.sessions.Get(sessionID, params)
	})
	if err != nil {
		return checkout.SessionState{}, fmt.Errorf("stripe: retrieve checkout session: %w", err)
	}
	if sess == nil {
		return checkout.SessionState{}, errNilSession
	}

	return sessionState(sess), nil
}

// ParseWebhook verifies the signature header and extracts the session the event is about.
func (c *Client) ParseWebhook(payload []byte, signature string) (checkout.WebhookEvent, error) {
	if c.webhookSecret == "" {
		return checkout.WebhookEvent{}, errWebhookNoSecret
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return checkout.WebhookEvent{}, fmt.Errorf("stripe: verify webhook: %w", err)
	}

	out := checkout.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") || event.Data == nil {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return checkout.WebhookEvent{}, fmt.Errorf("stripe: decode webhook session: %w", err)
	}
	out.SessionID = sess.ID

	return out, nil
}

func sessionState(sess *stripe.CheckoutSession) checkout.SessionState {
	return checkout.SessionState{
		ID:            sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		Paid:          sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      sess.Metadata,
	}
}
