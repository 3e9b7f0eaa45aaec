package stripegw

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

type fakeSessions struct {
	created []*stripe.CheckoutSessionParams
	newErr  error
	session *stripe.CheckoutSession
	calls   int
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.calls++
	f.created = append(f.created, params)
	if f.newErr != nil {
		return nil, f.newErr
	}

	return f.session, nil
}

func (f *fakeSessions) Get(id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.calls++
	if f.newErr != nil {
		return nil, f.newErr
	}
	s := *f.session
	s.ID = id

	return &s, nil
}

func testConfig() Config {
	return Config{
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
		SuccessURL:    "https://shop.example/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "https://shop.example/cancel",
	}
}

func TestCreateCheckoutSession_MapsRequest(t *testing.T) {
	sessions := &fakeSessions{session: &stripe.CheckoutSession{
		ID:        "cs_1",
		URL:       "https://checkout.stripe.com/cs_1",
		ExpiresAt: 1_700_000_000,
	}}
	c := NewClient(sessions, testConfig())

	sess, err := c.CreateCheckoutSession(context.Background(), checkout.SessionRequest{
		OrderID:  "order-1",
		Currency: "USD",
		Items: []checkout.LineItem{
			{Name: "Oud 50ml (Size: 50ml, Scent: Oud)", UnitAmount: 10000, Quantity: 2},
		},
		Metadata:       map[string]string{checkout.MetadataOrderID: "order-1"},
		IdempotencyKey: "checkout-session:order-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/cs_1", sess.URL)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), sess.ExpiresAt)

	require.Len(t, sessions.created, 1)
	params := sessions.created[0]
	assert.Equal(t, "payment", *params.Mode)
	assert.Equal(t, "order-1", *params.ClientReferenceID)
	assert.Equal(t, "order-1", params.Metadata[checkout.MetadataOrderID])
	require.NotNil(t, params.IdempotencyKey)
	assert.Equal(t, "checkout-session:order-1", *params.IdempotencyKey)

	require.Len(t, params.LineItems, 1)
	line := params.LineItems[0]
	assert.Equal(t, int64(2), *line.Quantity)
	assert.Equal(t, "usd", *line.PriceData.Currency)
	assert.Equal(t, int64(10000), *line.PriceData.UnitAmount)
	assert.Equal(t, "Oud 50ml (Size: 50ml, Scent: Oud)", *line.PriceData.ProductData.Name)
}

func TestCreateCheckoutSession_WrapsError(t *testing.T) {
	c := NewClient(&fakeSessions{newErr: errors.New("rate limited")}, testConfig())

	_, err := c.CreateCheckoutSession(context.Background(), checkout.SessionRequest{OrderID: "o"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCreateCheckoutSession_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	sessions := &fakeSessions{newErr: errors.New("503")}
	c := NewClient(sessions, testConfig())

	for range 5 {
		_, _ = c.CreateCheckoutSession(context.Background(), checkout.SessionRequest{OrderID: "o"})
	}
	_, err := c.CreateCheckoutSession(context.Background(), checkout.SessionRequest{OrderID: "o"})

	require.Error(t, err)
	assert.Equal(t, 5, sessions.calls)
}

func TestRetrieveSession_PaidFlag(t *testing.T) {
	sessions := &fakeSessions{session: &stripe.CheckoutSession{
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{checkout.MetadataOrderID: "order-1"},
	}}
	c := NewClient(sessions, testConfig())

	state, err := c.RetrieveSession(context.Background(), "cs_9")
	require.NoError(t, err)
	assert.True(t, state.Paid)
	assert.Equal(t, "cs_9", state.ID)
	assert.Equal(t, "order-1", state.Metadata[checkout.MetadataOrderID])

	sessions.session.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
	state, err = c.RetrieveSession(context.Background(), "cs_9")
	require.NoError(t, err)
	assert.False(t, state.Paid)

	_, err = c.RetrieveSession(context.Background(), " ")
	assert.Error(t, err)
}

func TestParseWebhook(t *testing.T) {
	c := NewClient(&fakeSessions{}, testConfig())
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_42", "object": "checkout.session"}}
	}`)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  "whsec_test",
	})

	ev, err := c.ParseWebhook(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, checkout.EventSessionCompleted, ev.Type)
	assert.Equal(t, "cs_42", ev.SessionID)

	_, err = c.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.Error(t, err)
}
