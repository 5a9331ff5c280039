package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
)

// CatalogClient reads the product listing and reviews from the shop API.
type CatalogClient struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

type productPage struct {
	Items domain.Catalog `json:"items"`
}

func NewCatalogClient(baseURL string, pageSize int, httpClient *http.Client) *CatalogClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &CatalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   pageSize,
		httpClient: httpClient,
	}
}

// Products fetches the first page of the catalog.
func (c *CatalogClient) Products(ctx context.Context) (domain.Catalog, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("page_size", strconv.Itoa(c.pageSize))

	var page productPage
	if err := c.getJSON(ctx, "/products?"+q.Encode(), &page); err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	return page.Items, nil
}

func (c *CatalogClient) Reviews(ctx context.Context) ([]domain.Review, error) {
	var reviews []domain.Review
	if err := c.getJSON(ctx, "/reviews", &reviews); err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	return reviews, nil
}

func (c *CatalogClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
