package paapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultHost     = "webservices.amazon.in"
	defaultEndpoint = "https://" + defaultHost + "/paapi5/"
	searchItemsOp   = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"
	getItemsOp      = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems"
)

var searchResources = map[ResourceSet][]string{
	ResourceSetSearch: {
		"ItemInfo.Title", "ItemInfo.Features", "ItemInfo.TechnicalInfo",
		"ItemInfo.ByLineInfo", "Offers.Listings.Price", "Images.Primary.Large",
		"Images.Primary.Medium", "CustomerReviews.Count", "CustomerReviews.StarRating",
	},
	ResourceSetLookup: {
		"ItemInfo.Title", "ItemInfo.Features", "ItemInfo.TechnicalInfo",
		"ItemInfo.ByLineInfo", "Offers.Listings.Price", "Offers.Listings.SavingBasis",
		"Images.Primary.Large", "Images.Primary.Medium",
	},
}

// HTTPClient implements Client against the real product-advertising API
// over HTTPS, signing every request with Signer (spec.md §4.7: "the sole
// point of contact with the upstream").
type HTTPClient struct {
	signer     *Signer
	partnerTag string
	host       string
	endpoint   string
	httpClient *http.Client
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient overrides the default HTTP transport.
func WithHTTPClient(hc *http.Client) HTTPClientOption {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithEndpoint overrides the default India-marketplace endpoint and host,
// for other marketplaces or test doubles.
func WithEndpoint(host, endpoint string) HTTPClientOption {
	return func(c *HTTPClient) {
		c.host = host
		c.endpoint = endpoint
	}
}

// NewHTTPClient constructs an HTTPClient signing requests with signer on
// behalf of partnerTag (config: paapi.partner_tag).
func NewHTTPClient(signer *Signer, partnerTag string, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		signer:     signer,
		partnerTag: partnerTag,
		host:       defaultHost,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type wirePrice struct {
	Amount   float64 `json:"Amount"`
	Savings  *struct {
		Amount float64 `json:"Amount"`
	} `json:"Savings"`
	SavingBasis *struct {
		Amount float64 `json:"Amount"`
	} `json:"SavingBasis"`
}

type wireItem struct {
	ASIN     string `json:"ASIN"`
	ItemInfo struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
		ByLineInfo struct {
			Brand        struct{ DisplayValue string } `json:"Brand"`
			Manufacturer struct{ DisplayValue string } `json:"Manufacturer"`
		} `json:"ByLineInfo"`
		Features struct {
			DisplayValues []string `json:"DisplayValues"`
		} `json:"Features"`
		TechnicalInfo struct {
			DisplayValues map[string]struct {
				DisplayValue string `json:"DisplayValue"`
			} `json:"DisplayValues"`
		} `json:"TechnicalInfo"`
	} `json:"ItemInfo"`
	Offers struct {
		Listings []struct {
			Price wirePrice `json:"Price"`
		} `json:"Listings"`
	} `json:"Offers"`
	Images struct {
		Primary struct {
			Large  struct{ URL string } `json:"Large"`
			Medium struct{ URL string } `json:"Medium"`
		} `json:"Primary"`
	} `json:"Images"`
	CustomerReviews struct {
		Count      int     `json:"Count"`
		StarRating float64 `json:"StarRating"`
	} `json:"CustomerReviews"`
}

type wireErrorEnvelope struct {
	Errors []struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Errors"`
}

type searchItemsRequestBody struct {
	Keywords      string   `json:"Keywords,omitempty"`
	SearchIndex   string   `json:"SearchIndex,omitempty"`
	BrowseNodeId  string   `json:"BrowseNodeId,omitempty"` //nolint:revive // matches upstream field casing
	MinPrice      *int     `json:"MinPrice,omitempty"`
	MaxPrice      *int     `json:"MaxPrice,omitempty"`
	ItemCount     int      `json:"ItemCount,omitempty"`
	ItemPage      int      `json:"ItemPage,omitempty"`
	PartnerTag    string   `json:"PartnerTag"`
	PartnerType   string   `json:"PartnerType"`
	Marketplace   string   `json:"Marketplace"`
	Resources     []string `json:"Resources"`
}

type searchItemsResponseBody struct {
	SearchResult struct {
		Items      []wireItem `json:"Items"`
		TotalCount int        `json:"TotalResultCount"`
	} `json:"SearchResult"`
	wireErrorEnvelope
}

type getItemsRequestBody struct {
	ItemIds     []string `json:"ItemIds"` //nolint:revive // matches upstream field casing
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
	Resources   []string `json:"Resources"`
}

type getItemsResponseBody struct {
	ItemsResult struct {
		Items []wireItem `json:"Items"`
	} `json:"ItemsResult"`
	wireErrorEnvelope
}

// SearchItems implements Client.
func (c *HTTPClient) SearchItems(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	body := searchItemsRequestBody{
		Keywords:    req.Keywords,
		SearchIndex: req.SearchIndex,
		BrowseNodeId: req.BrowseNode,
		MinPrice:    rupeesToPaiseParam(req.MinPrice),
		MaxPrice:    rupeesToPaiseParam(req.MaxPrice),
		ItemCount:   req.ItemCount,
		ItemPage:    req.ItemPage,
		PartnerTag:  c.partnerTag,
		PartnerType: "Associates",
		Marketplace: "www.amazon.in",
		Resources:   searchResources[req.Resources],
	}

	var resp searchItemsResponseBody
	if err := c.call(ctx, searchItemsOp, body, &resp); err != nil {
		return SearchResponse{}, err
	}

	return SearchResponse{
		Products: wireItemsToProducts(resp.SearchResult.Items),
		Meta: RawMeta{
			TotalResultCount: resp.SearchResult.TotalCount,
			HasMorePages:     req.ItemPage*batchSize < resp.SearchResult.TotalCount,
		},
	}, nil
}

// GetItems implements Client.
func (c *HTTPClient) GetItems(ctx context.Context, asins []string, resources ResourceSet) (map[string]Product, error) {
	body := getItemsRequestBody{
		ItemIds:     asins,
		PartnerTag:  c.partnerTag,
		PartnerType: "Associates",
		Marketplace: "www.amazon.in",
		Resources:   searchResources[resources],
	}

	var resp getItemsResponseBody
	if err := c.call(ctx, getItemsOp, body, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]Product, len(resp.ItemsResult.Items))
	for _, p := range wireItemsToProducts(resp.ItemsResult.Items) {
		out[p.ASIN] = p
	}
	return out, nil
}

func (c *HTTPClient) call(ctx context.Context, target string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Host = c.host
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Content-Encoding", "amz-1.0")
	httpReq.Header.Set("X-Amz-Target", target)

	if err := c.signer.Sign(httpReq, payload, time.Now()); err != nil {
		return fmt.Errorf("signing request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", string(raw))}
	}

	if err := json.Unmarshal(raw, respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func rupeesToPaiseParam(rupees *int) *int {
	// PA-API's MinPrice/MaxPrice parameters are denominated in the lowest
	// currency unit (paise for the India marketplace); the core's own
	// request/response types stay in rupees everywhere else (spec.md §4.7).
	if rupees == nil {
		return nil
	}
	paise := *rupees * 100
	return &paise
}

func wireItemsToProducts(items []wireItem) []Product {
	out := make([]Product, 0, len(items))
	for _, it := range items {
		out = append(out, wireItemToProduct(it))
	}
	return out
}

func wireItemToProduct(it wireItem) Product {
	p := Product{
		ASIN:         it.ASIN,
		Title:        it.ItemInfo.Title.DisplayValue,
		Brand:        it.ItemInfo.ByLineInfo.Brand.DisplayValue,
		Manufacturer: it.ItemInfo.ByLineInfo.Manufacturer.DisplayValue,
		FeaturesList: it.ItemInfo.Features.DisplayValues,
		RatingCount:  it.CustomerReviews.Count,
		AverageRating: it.CustomerReviews.StarRating,
		ImageLarge:   it.Images.Primary.Large.URL,
		ImageMedium:  it.Images.Primary.Medium.URL,
	}

	if len(it.Offers.Listings) > 0 {
		listing := it.Offers.Listings[0]
		paise := int64(listing.Price.Amount * 100)
		p.PricePaise = &paise
		if listing.Price.SavingBasis != nil {
			basisPaise := int64(listing.Price.SavingBasis.Amount * 100)
			p.ListPricePaise = &basisPaise
		}
	}

	if len(it.ItemInfo.TechnicalInfo.DisplayValues) > 0 {
		p.TechnicalDetails = make(map[string]string, len(it.ItemInfo.TechnicalInfo.DisplayValues))
		for k, v := range it.ItemInfo.TechnicalInfo.DisplayValues {
			p.TechnicalDetails[k] = v.DisplayValue
		}
	}

	return p
}
