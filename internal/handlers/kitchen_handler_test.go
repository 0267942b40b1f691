package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kitchen_console/internal/kitchen"
	"kitchen_console/internal/models"
	"kitchen_console/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubKitchenService struct {
	items    []kitchen.PendingItem
	receipts []kitchen.KitchenReceipt
	err      error

	updates   []string
	completed []uint
}

func (s *stubKitchenService) GetPendingItems(ctx context.Context) ([]kitchen.PendingItem, error) {
	return s.items, s.err
}

func (s *stubKitchenService) GetReceipts(ctx context.Context) ([]kitchen.KitchenReceipt, error) {
	return s.receipts, s.err
}

func (s *stubKitchenService) UpdateItemStatus(ctx context.Context, receiptID, itemID uint, status models.ReceiptItemStatus) error {
	s.updates = append(s.updates, fmt.Sprintf("%d/%d=%s", receiptID, itemID, status))
	return s.err
}

func (s *stubKitchenService) CompleteReceipt(ctx context.Context, receiptID uint) error {
	s.completed = append(s.completed, receiptID)
	return s.err
}

func (s *stubKitchenService) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	return s.err
}

func newTestRouter(service services.KitchenService, health func(context.Context) error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	NewKitchenHandler(service, health).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetPendingItems(t *testing.T) {
	table := 4
	service := &stubKitchenService{
		items: []kitchen.PendingItem{
			{ID: 1, ReceiptID: 10, ReceiptNumber: "R-0010", ItemName: "soup", Quantity: 2, Status: models.ItemReady, TableNumber: &table},
		},
	}
	rec := serve(newTestRouter(service, nil), http.MethodGet, "/api/kitchen/pending-items", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "ready", got[0]["status"])
	assert.Equal(t, "R-0010", got[0]["receipt_number"])
	assert.EqualValues(t, 4, got[0]["table_number"])
	assert.NotContains(t, got[0], "phone_number")
}

func TestGetReceiptsEmptyIsAnEmptyList(t *testing.T) {
	service := &stubKitchenService{receipts: []kitchen.KitchenReceipt{}}
	rec := serve(newTestRouter(service, nil), http.MethodGet, "/api/kitchen/receipts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestUpdateItemStatus(t *testing.T) {
	service := &stubKitchenService{}
	rec := serve(newTestRouter(service, nil), http.MethodPut,
		"/api/kitchen/receipts/10/items/3/status", `{"status":"preparing"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"10/3=preparing"}, service.updates)
}

func TestUpdateItemStatusBadInput(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "non numeric receipt", path: "/api/kitchen/receipts/abc/items/3/status", body: `{"status":"ready"}`},
		{name: "zero item", path: "/api/kitchen/receipts/10/items/0/status", body: `{"status":"ready"}`},
		{name: "missing status", path: "/api/kitchen/receipts/10/items/3/status", body: `{}`},
		{name: "unknown status", path: "/api/kitchen/receipts/10/items/3/status", body: `{"status":"served"}`},
		{name: "malformed body", path: "/api/kitchen/receipts/10/items/3/status", body: `{"status":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubKitchenService{}
			rec := serve(newTestRouter(service, nil), http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, service.updates, "service must not be called")
		})
	}
}

func TestServiceErrorsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrReceiptNotFound, http.StatusNotFound},
		{services.ErrItemNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: pending -> done", services.ErrTransitionNotAllowed), http.StatusConflict},
		{services.ErrReceiptNotReady, http.StatusConflict},
		{services.ErrReceiptCompleted, http.StatusConflict},
		{services.ErrConflict, http.StatusConflict},
		{services.ErrInvalidStatus, http.StatusBadRequest},
		{errors.New("database is on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			service := &stubKitchenService{err: tt.err}
			rec := serve(newTestRouter(service, nil), http.MethodPost, "/api/kitchen/receipts/10/complete", "")
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCompleteReceipt(t *testing.T) {
	service := &stubKitchenService{}
	rec := serve(newTestRouter(service, nil), http.MethodPost, "/api/kitchen/receipts/42/complete", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint{42}, service.completed)
}

func TestHealth(t *testing.T) {
	rec := serve(newTestRouter(&stubKitchenService{}, func(context.Context) error { return nil }), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestRouter(&stubKitchenService{}, func(context.Context) error { return errors.New("db down") }), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := newTestRouter(&stubKitchenService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "kds-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "kds-7", rec.Header().Get(RequestIDHeader))
}
