package ameritrade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ganchinyao/tos-algo-trade/broker"
	"github.com/ganchinyao/tos-algo-trade/market"
)

// Client talks to the TD Ameritrade order and quote APIs. Access tokens are
// obtained through the refresh-token grant and cached until shortly before
// expiry.
type Client struct {
	BaseURL      string // e.g. https://api.tdameritrade.com
	ClientID     string // consumer key, @AMER.OAUTHAP appended if missing
	RefreshToken string
	AccountID    string
	HTTP         *http.Client

	mu          sync.Mutex
	accessToken string
	expiresOn   time.Time
}

var _ broker.Broker = (*Client)(nil)

func New(baseURL, clientID, refreshToken, accountID string) *Client {
	return &Client{
		BaseURL:      baseURL,
		ClientID:     clientID,
		RefreshToken: refreshToken,
		AccountID:    accountID,
		HTTP:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) clientID() string {
	if strings.HasSuffix(c.ClientID, "@AMER.OAUTHAP") {
		return c.ClientID
	}
	return c.ClientID + "@AMER.OAUTHAP"
}

// token returns a valid access token, refreshing through the OAuth
// refresh-token grant when the cached one is missing or expired.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresOn) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.RefreshToken)
	form.Set("client_id", c.clientID())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("oauth refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", fmt.Errorf("oauth refresh http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("oauth refresh decode: %w", err)
	}

	c.accessToken = tok.AccessToken
	// Renew a minute early so an in-flight call never carries a token that
	// expires mid-request.
	c.expiresOn = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		resp.Body.Close()
		return nil, fmt.Errorf("ameritrade %s %s http %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return resp, nil
}

// SubmitMarketOrder places a single-leg day market order.
func (c *Client) SubmitMarketOrder(ctx context.Context, req broker.MarketOrderRequest) error {
	payload := orderPayload{
		OrderType:         "MARKET",
		Session:           "NORMAL",
		Duration:          "DAY",
		OrderStrategyType: "SINGLE",
		OrderLegCollection: []orderLeg{{
			Instruction: string(req.Instruction),
			Quantity:    req.Quantity,
			Instrument: orderInstrmnt{
				Symbol:    req.Symbol,
				AssetType: string(req.AssetType),
			},
		}},
	}

	resp, err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/v1/accounts/%s/orders", c.AccountID), nil, payload)
	if err != nil {
		return fmt.Errorf("submit market order: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// GetFillPrice returns the execution price of the latest API-tagged filled
// order for symbol on the day of at, or 0 when no filled order matches.
// Only single-leg executions are considered.
func (c *Client) GetFillPrice(ctx context.Context, symbol string, at time.Time) (float64, error) {
	q := url.Values{}
	q.Set("fromEnteredTime", market.Date(at))
	q.Set("status", "FILLED")

	resp, err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("/v1/accounts/%s/orders", c.AccountID), q, nil)
	if err != nil {
		return 0, fmt.Errorf("list filled orders: %w", err)
	}
	defer resp.Body.Close()

	var orders []orderStatus
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return 0, fmt.Errorf("decode filled orders: %w", err)
	}

	matched := orders[:0]
	for _, o := range orders {
		if !strings.Contains(o.Tag, "API") {
			continue
		}
		if len(o.OrderLegCollection) == 0 || o.OrderLegCollection[0].Instrument.Symbol != symbol {
			continue
		}
		matched = append(matched, o)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CloseTime > matched[j].CloseTime
	})

	for _, o := range matched {
		for _, act := range o.OrderActivityCollection {
			if act.ActivityType == "EXECUTION" && len(act.ExecutionLegs) > 0 {
				return act.ExecutionLegs[0].Price, nil
			}
		}
		break
	}
	return 0, nil
}

// GetCurrentPrice returns the last traded price from the quote endpoint.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	resp, err := c.do(ctx, http.MethodGet,
		"/v1/marketdata/"+url.PathEscape(symbol)+"/quotes", nil, nil)
	if err != nil {
		return 0, fmt.Errorf("get quote: %w", err)
	}
	defer resp.Body.Close()

	var quotes quoteResult
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return 0, fmt.Errorf("decode quote: %w", err)
	}

	q, ok := quotes[symbol]
	if !ok {
		return 0, fmt.Errorf("no quote data for %s", symbol)
	}
	return q.LastPrice, nil
}
