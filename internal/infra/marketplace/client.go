// Package marketplace talks to a remote listings service over HTTP.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra"
)

// Client implements application.ListingStore against a service exposing
// POST /add_listing, POST /delete_listing and GET /get_all_listings.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: infra.NewHTTPClient(15 * time.Second),
	}
}

type addRequest struct {
	ItemName      string  `json:"item_name"`
	Price         float64 `json:"price"`
	Description   string  `json:"description"`
	SellerName    string  `json:"seller_name"`
	SellerContact string  `json:"seller_contact"`
}

type addResponse struct {
	Status    string `json:"status"`
	ListingID string `json:"listing_id"`
	Message   string `json:"message"`
}

func (c *Client) AddListing(ctx context.Context, in domain.NewListing) (domain.Listing, error) {
	body, err := json.Marshal(addRequest{
		ItemName:      in.ItemName,
		Price:         in.Price,
		Description:   in.Description,
		SellerName:    in.SellerName,
		SellerContact: in.SellerContact,
	})
	if err != nil {
		return domain.Listing{}, fmt.Errorf("marshaling listing: %w", err)
	}

	var result addResponse
	if _, err := c.do(ctx, infra.RetryConfig{MaxAttempts: 1}, http.MethodPost, "/add_listing", body, &result); err != nil {
		return domain.Listing{}, fmt.Errorf("%w: adding listing: %w", domain.ErrStorage, err)
	}
	if result.Status == "error" {
		return domain.Listing{}, fmt.Errorf("%w: adding listing: %s", domain.ErrStorage, result.Message)
	}

	return domain.Listing{
		ID:            result.ListingID,
		ItemName:      in.ItemName,
		Price:         in.Price,
		SellerName:    in.SellerName,
		SellerContact: in.SellerContact,
		Description:   in.Description,
	}, nil
}

func (c *Client) DeleteListing(ctx context.Context, id string) error {
	body, _ := json.Marshal(map[string]string{"listing_id": id})

	status, err := c.do(ctx, infra.DefaultRetryConfig(), http.MethodPost, "/delete_listing", body, nil)
	if status == http.StatusNotFound {
		return fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: deleting listing: %w", domain.ErrStorage, err)
	}
	return nil
}

func (c *Client) ListListings(ctx context.Context) ([]domain.Listing, error) {
	var listings []domain.Listing
	if _, err := c.do(ctx, infra.DefaultRetryConfig(), http.MethodGet, "/get_all_listings", nil, &listings); err != nil {
		return nil, fmt.Errorf("%w: listing listings: %w", domain.ErrStorage, err)
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	return listings, nil
}

// do sends the request under retry and decodes a 2xx body into out. The
// final status code is returned even on error. Adding a listing is not
// idempotent, so callers send it with a single attempt.
func (c *Client) do(ctx context.Context, retry infra.RetryConfig, method, path string, body []byte, out any) (int, error) {
	var status int

	err := infra.WithRetry(ctx, retry, func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if err := infra.CheckStatus("marketplace", resp); err != nil {
			return err
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return infra.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	})

	return status, err
}
