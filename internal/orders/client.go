// Package orders delegates order placement to the backend order API.
// The storefront never owns fulfillment; it forwards the cart and the
// caller's access token and reports the backend's decision.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Item struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type Order struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

var (
	ErrUnauthorized = errors.New("order rejected: unauthorized")
	ErrRejected     = errors.New("order rejected")
	ErrBadStatus    = errors.New("order api bad status")
	ErrUnavailable  = errors.New("order api unavailable")
)

type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Place submits the items as a new order on behalf of the token holder.
func (c *Client) Place(ctx context.Context, accessToken string, items []Item) (Order, error) {
	body, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Order{}, ErrUnavailable
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return Order{}, ErrUnavailable
		}
		return Order{}, ErrUnavailable
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return Order{}, ErrUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return Order{}, ErrRejected
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Order{}, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	var o Order
	if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
		return Order{}, err
	}
	return o, nil
}
