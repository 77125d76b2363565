package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/payments"
)

type fakePaymentStore struct {
	pending  []*payments.Payment
	resolved map[int64]bool
	listErr  error
}

func (f *fakePaymentStore) ListPending(_ context.Context, filter payments.Filter) ([]*payments.Payment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.pending
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakePaymentStore) ResolvePending(_ context.Context, paymentID, subscriberID int64, transactionID string) (*payments.Transaction, error) {
	if f.resolved[paymentID] {
		return nil, payments.ErrAlreadyResolved
	}

	var found *payments.Payment
	for _, p := range f.pending {
		if p.ID == paymentID {
			found = p
			break
		}
	}
	if found == nil {
		return nil, payments.ErrNotFound
	}

	if f.resolved == nil {
		f.resolved = make(map[int64]bool)
	}
	f.resolved[paymentID] = true

	return &payments.Transaction{
		ID:           transactionID,
		SubscriberID: subscriberID,
		AmountCents:  found.AmountCents,
		PaymentID:    &paymentID,
		CreatedAt:    time.Now(),
	}, nil
}

func (f *fakePaymentStore) CountPending(context.Context) (int, error) {
	return len(f.pending), nil
}

func newPaymentServer(t *testing.T, store payments.Store) http.Handler {
	t.Helper()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewServer(Deps{
		Subscribers: &stubService{},
		Payments:    payments.NewEngine(store, logger, nil),
		Logger:      logger,
	}).Handler()
}

func TestListPending(t *testing.T) {
	store := &fakePaymentStore{
		pending: []*payments.Payment{
			{ID: 1, MpesaCode: "SBK2XJ91QP", AmountCents: 150000, Phone: "254712345678"},
			{ID: 2, MpesaCode: "SBK3AA02RT", AmountCents: 50000, Phone: "254700000001"},
		},
	}
	handler := newPaymentServer(t, store)

	rec := doRequest(t, handler, "GET", "/api/v1/payments/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pending []*payments.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 2)
	assert.Equal(t, "SBK2XJ91QP", pending[0].MpesaCode)
}

func TestListPendingLimit(t *testing.T) {
	store := &fakePaymentStore{
		pending: []*payments.Payment{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	handler := newPaymentServer(t, store)

	rec := doRequest(t, handler, "GET", "/api/v1/payments/pending?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pending []*payments.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.Len(t, pending, 2)
}

func TestListPendingInvalidLimit(t *testing.T) {
	handler := newPaymentServer(t, &fakePaymentStore{})

	for _, limit := range []string{"0", "-5", "9999", "abc"} {
		rec := doRequest(t, handler, "GET", "/api/v1/payments/pending?limit="+limit, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestListPendingEmptyIsArray(t *testing.T) {
	handler := newPaymentServer(t, &fakePaymentStore{})

	rec := doRequest(t, handler, "GET", "/api/v1/payments/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestResolvePayment(t *testing.T) {
	store := &fakePaymentStore{
		pending: []*payments.Payment{{ID: 4, MpesaCode: "SBK2XJ91QP", AmountCents: 150000}},
	}
	handler := newPaymentServer(t, store)

	rec := doRequest(t, handler, "POST", "/api/v1/payments/4/resolve", ResolveRequest{SubscriberID: 7})
	require.Equal(t, http.StatusOK, rec.Code)

	var tx payments.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	assert.Equal(t, int64(7), tx.SubscriberID)
	assert.Equal(t, int64(150000), tx.AmountCents)
	require.NotNil(t, tx.PaymentID)
	assert.Equal(t, int64(4), *tx.PaymentID)
}

func TestResolvePaymentTwiceConflicts(t *testing.T) {
	store := &fakePaymentStore{
		pending: []*payments.Payment{{ID: 4, AmountCents: 150000}},
	}
	handler := newPaymentServer(t, store)

	rec := doRequest(t, handler, "POST", "/api/v1/payments/4/resolve", ResolveRequest{SubscriberID: 7})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, "POST", "/api/v1/payments/4/resolve", ResolveRequest{SubscriberID: 8})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "already linked")
}

func TestResolvePaymentNotFound(t *testing.T) {
	handler := newPaymentServer(t, &fakePaymentStore{})

	rec := doRequest(t, handler, "POST", "/api/v1/payments/99/resolve", ResolveRequest{SubscriberID: 7})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolvePaymentMissingSubscriber(t *testing.T) {
	handler := newPaymentServer(t, &fakePaymentStore{})

	rec := doRequest(t, handler, "POST", "/api/v1/payments/4/resolve", ResolveRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolvePaymentBadBody(t *testing.T) {
	handler := newPaymentServer(t, &fakePaymentStore{})

	req := doRequest(t, handler, "POST", "/api/v1/payments/4/resolve", nil)
	assert.Equal(t, http.StatusBadRequest, req.Code)
}
