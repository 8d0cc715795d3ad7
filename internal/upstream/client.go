package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cold-backend/pkg/utils"
)

// Client fetches the external catalog/orders document, grounded on the bearer-header
// HTTP client shape used by the pack's pitixsync client, adapted to a single-shot GET
// with no pagination and no retry (retries are the scheduler's concern).
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Item is one upstream catalog entry: fixed product fields plus a catch-all for
// anything the document carries that this service does not model.
type Item struct {
	SKU              string
	Title            string
	ImageURL         string
	Price            *float64
	VendorName       string
	VariationDetails string
	Orders           []OrderLeaf
	Extra            map[string]interface{}
}

var knownItemFields = map[string]bool{
	"sku": true, "title": true, "image_url": true, "price": true,
	"vendor_name": true, "variation_details": true, "orders": true,
}

// UnmarshalJSON captures every field this service doesn't model into Extra instead of
// silently discarding it at decode time, so the importer can log-and-drop with the
// actual field names rather than losing them before they're ever seen.
func (it *Item) UnmarshalJSON(data []byte) error {
	type known struct {
		SKU              string      `json:"sku"`
		Title            string      `json:"title"`
		ImageURL         string      `json:"image_url"`
		Price            *float64    `json:"price"`
		VendorName       string      `json:"vendor_name"`
		VariationDetails string      `json:"variation_details"`
		Orders           []OrderLeaf `json:"orders"`
	}
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}
	it.SKU, it.Title, it.ImageURL = k.SKU, k.Title, k.ImageURL
	it.Price, it.VendorName, it.VariationDetails, it.Orders = k.Price, k.VendorName, k.VariationDetails, k.Orders

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, v := range raw {
		if knownItemFields[key] {
			continue
		}
		if it.Extra == nil {
			it.Extra = make(map[string]interface{})
		}
		var val interface{}
		json.Unmarshal(v, &val)
		it.Extra[key] = val
	}
	return nil
}

// OrderLeaf is one demand line under an item; the same external_order_id may repeat
// across many items (once per product it contains) and must not be deduplicated here.
type OrderLeaf struct {
	ExternalOrderID string    `json:"external_order_id"`
	Number          string    `json:"number"`
	CustomerName    string    `json:"customer_name"`
	Qty             int       `json:"qty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Subcategory struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

type Category struct {
	Name          string         `json:"name"`
	Subcategories []Subcategory  `json:"subcategories"`
}

// Document is the root of the four-level upstream tree.
type Document struct {
	Categories []Category `json:"categories"`
}

// Fetch performs the single-shot GET and parses the response into Document. Transport
// failures surface as UpstreamUnavailable; a response that doesn't parse into the
// expected shape surfaces as UpstreamMalformed.
func (c *Client) Fetch(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, utils.NewError(utils.UpstreamUnavailable, "could not build upstream request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, utils.NewErrorWithDetails(utils.UpstreamUnavailable, "upstream catalog API unreachable", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewError(utils.UpstreamUnavailable, "failed reading upstream response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, utils.NewErrorWithDetails(utils.UpstreamUnavailable,
			fmt.Sprintf("upstream catalog API returned status %d", resp.StatusCode), strings.TrimSpace(string(body)))
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, utils.NewErrorWithDetails(utils.UpstreamMalformed, "upstream document did not match expected schema", err.Error())
	}
	if doc.Categories == nil {
		return nil, utils.NewError(utils.UpstreamMalformed, "upstream document missing categories")
	}

	return &doc, nil
}
