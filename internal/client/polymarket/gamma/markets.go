package polymarketgamma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

type GetMarketsParams struct {
	Limit  int
	Offset int
	Closed *bool
	Active *bool
}

type GetMarketByIDQueryParams struct {
	IncludeTag *bool
}

func (c *Client) GetMarkets(ctx context.Context, params *GetMarketsParams) ([]*Market, error) {
	query := url.Values{}
	if params != nil {
		if params.Limit > 0 {
			query.Set("limit", fmt.Sprintf("%d", params.Limit))
		}
		if params.Offset > 0 {
			query.Set("offset", fmt.Sprintf("%d", params.Offset))
		}
		if params.Closed != nil {
			query.Set("closed", fmt.Sprintf("%t", *params.Closed))
		}
		if params.Active != nil {
			query.Set("active", fmt.Sprintf("%t", *params.Active))
		}
	}
	path := "/markets"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	body, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, err
	}
	var markets []*Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("failed to decode markets: %w", err)
	}
	return markets, nil
}

// GetMarketRawByID fetches a single market and returns the undecoded body.
// Resolution probing reads fields the typed Market struct does not model.
func (c *Client) GetMarketRawByID(ctx context.Context, marketID string, params *GetMarketByIDQueryParams) ([]byte, error) {
	path := "/markets/" + url.PathEscape(marketID)
	if params != nil && params.IncludeTag != nil {
		query := url.Values{}
		query.Set("include_tag", fmt.Sprintf("%t", *params.IncludeTag))
		path += "?" + query.Encode()
	}
	return c.doRequest(ctx, "GET", path)
}
