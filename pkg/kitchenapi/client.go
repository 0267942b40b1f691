package kitchenapi

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

	"kitchen_console/internal/kitchen"
	"kitchen_console/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("rejected by kitchen backend")
	ErrBadInput = errors.New("bad request")
)

// APIError is a non-2xx response. It unwraps to ErrNotFound, ErrConflict or
// ErrBadInput where the status code allows.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("kitchen api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("kitchen api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest:
		return ErrBadInput
	}
	return nil
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

type updateStatusRequest struct {
	Status models.ReceiptItemStatus `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchPendingItems returns the flat kitchen view.
func (c *Client) FetchPendingItems(ctx context.Context) ([]kitchen.PendingItem, error) {
	var items []kitchen.PendingItem
	if err := c.do(ctx, http.MethodGet, "/api/kitchen/pending-items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchReceipts returns the receipt-grouped kitchen view.
func (c *Client) FetchReceipts(ctx context.Context) ([]kitchen.KitchenReceipt, error) {
	var receipts []kitchen.KitchenReceipt
	if err := c.do(ctx, http.MethodGet, "/api/kitchen/receipts", nil, &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// UpdateItemStatus sends exactly one request and never retries.
func (c *Client) UpdateItemStatus(ctx context.Context, receiptID, itemID uint, status models.ReceiptItemStatus) error {
	path := fmt.Sprintf("/api/kitchen/receipts/%d/items/%d/status", receiptID, itemID)
	return c.do(ctx, http.MethodPut, path, updateStatusRequest{Status: status}, nil)
}

// CompleteReceipt marks a receipt done. The backend decides whether that is
// allowed.
func (c *Client) CompleteReceipt(ctx context.Context, receiptID uint) error {
	path := fmt.Sprintf("/api/kitchen/receipts/%d/complete", receiptID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed errorResponse
		if json.Unmarshal(respBody, &parsed) == nil {
			apiErr.Message = parsed.Error
		}
		return apiErr
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
