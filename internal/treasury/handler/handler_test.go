package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/treasury"
	"custodia/internal/treasury/handler"
	"custodia/pkg/domain"
	"custodia/pkg/testutil"
)

func newRouter(t *testing.T) (chi.Router, *treasury.Service) {
	t.Helper()
	svc := treasury.NewService(treasury.NewInMemory())
	h := handler.New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r, svc
}

func TestHandleCreate(t *testing.T) {
	r, _ := newRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/treasuries", handler.CreateRequest{
		Signers:   []string{"alice", "bob", "carol"},
		Threshold: 2,
	})
	rr := testutil.DoRequest(r, testutil.WithActor(req, "alice"))

	testutil.AssertStatus(t, rr, http.StatusCreated)
	got := testutil.UnmarshalResponse[treasury.Treasury](t, rr)
	assert.False(t, got.ID.IsNil())
	assert.Equal(t, 2, got.Threshold)
	assert.Len(t, got.Signers, 3)
}

func TestHandleCreateRejectsBadInput(t *testing.T) {
	r, _ := newRouter(t)

	t.Run("threshold above signer count", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/treasuries", handler.CreateRequest{
			Signers:   []string{"alice"},
			Threshold: 2,
		})
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_failed")
	})

	t.Run("empty signer address", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/treasuries", handler.CreateRequest{
			Signers:   []string{""},
			Threshold: 1,
		})
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("unknown field", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/treasuries", `{"signers":["alice"],"threshold":1,"bogus":true}`)
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestHandleGet(t *testing.T) {
	r, svc := newRouter(t)
	ctx := testutil.Context("alice", time.Now())
	tr, err := svc.Create(ctx, []domain.Address{"alice", "bob"}, 2)
	require.NoError(t, err)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/treasuries/"+tr.ID.String()))
	testutil.AssertStatus(t, rr, http.StatusOK)
	got := testutil.UnmarshalResponse[treasury.Treasury](t, rr)
	assert.Equal(t, tr.ID, got.ID)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/treasuries/"+domain.NewTreasuryID().String()))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/treasuries/not-a-uuid"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
}

func TestHandleDeposit(t *testing.T) {
	r, svc := newRouter(t)
	ctx := testutil.Context("alice", time.Now())
	tr, err := svc.Create(ctx, []domain.Address{"alice", "bob"}, 2)
	require.NoError(t, err)

	t.Run("requires authentication", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/treasuries/"+tr.ID.String()+"/deposit", handler.DepositRequest{Amount: 500})
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("records the deposit", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/treasuries/"+tr.ID.String()+"/deposit", handler.DepositRequest{Amount: 500})
		rr := testutil.DoRequest(r, testutil.WithActor(req, "alice"))
		testutil.AssertStatus(t, rr, http.StatusOK)
		got := testutil.UnmarshalResponse[treasury.Treasury](t, rr)
		assert.Equal(t, int64(500), got.Balance)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/treasuries/"+tr.ID.String()+"/deposit", handler.DepositRequest{Amount: 0})
		rr := testutil.DoRequest(r, testutil.WithActor(req, "alice"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_failed")
	})
}
