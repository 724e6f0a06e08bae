package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganchinyao/tos-algo-trade/broker"
	"github.com/ganchinyao/tos-algo-trade/broker/paper"
	"github.com/ganchinyao/tos-algo-trade/config"
	"github.com/ganchinyao/tos-algo-trade/gate"
	"github.com/ganchinyao/tos-algo-trade/ledger"
	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/market"
	"github.com/ganchinyao/tos-algo-trade/trader"
)

const testToken = "sekrit"

type fixture struct {
	srv    *Server
	broker *paper.Broker
	store  *config.Store
	book   *logbook.Book
	led    *ledger.Ledger
}

var tradingHour = time.Date(2023, 6, 13, 10, 30, 0, 0, market.ExchangeTZ())

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	book, err := logbook.Open(filepath.Join(dir, "db"))
	require.NoError(t, err)
	store, err := config.OpenStore(filepath.Join(dir, "trading.json"))
	require.NoError(t, err)

	led := ledger.New()
	b := paper.New()
	orch := trader.New(led, gate.New(gate.DefaultPolicy(), store, book), book, b, nil)
	orch.Now = func() time.Time { return tradingHour }

	return &fixture{
		srv:    New(orch, book, store, testToken),
		broker: b,
		store:  store,
		book:   book,
		led:    led,
	}
}

func (fx *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	for _, tc := range []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong token", "Bearer nope"},
		{"wrong scheme", "Basic " + testToken},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/config", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			fx.srv.Handler().ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestHealthzIsPublic(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMarketBuyExecutes(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	fx.broker.SetQuote("QQQ", 355.20)

	w := fx.do(t, http.MethodPost, "/market_buy",
		map[string]any{"strategy": "macd-cross", "symbol": "QQQ", "quantity": 10})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Executed    bool    `json:"executed"`
		Instruction string  `json:"instruction"`
		Quantity    float64 `json:"quantity"`
		Price       float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Executed)
	assert.Equal(t, "BUY_TO_OPEN", resp.Instruction)
	assert.Equal(t, 10.0, resp.Quantity)
	assert.Equal(t, 355.20, resp.Price)

	assert.Equal(t, market.Long, fx.led.Get("macd-cross").Position)
}

func TestMarketOrderDispatchesOnInstruction(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	fx.broker.SetQuote("SPY", 440.00)

	w := fx.do(t, http.MethodPost, "/market_order",
		map[string]any{"instruction": "SELL", "strategy": "mean-rev", "symbol": "SPY", "quantity": 4})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, market.Short, fx.led.Get("mean-rev").Position)

	w = fx.do(t, http.MethodPost, "/market_order",
		map[string]any{"instruction": "HOLD", "strategy": "mean-rev", "symbol": "SPY", "quantity": 4})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTradeValidation(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	for name, body := range map[string]map[string]any{
		"no strategy":  {"symbol": "QQQ", "quantity": 10},
		"no symbol":    {"strategy": "s", "quantity": 10},
		"zero qty":     {"strategy": "s", "symbol": "QQQ"},
		"negative qty": {"strategy": "s", "symbol": "QQQ", "quantity": -1},
	} {
		t.Run(name, func(t *testing.T) {
			w := fx.do(t, http.MethodPost, "/market_buy", body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
	assert.Empty(t, fx.broker.Orders())
}

func TestBlockedTradeReportsReason(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	require.NoError(t, fx.store.SetKillSwitch(false, "test"))

	w := fx.do(t, http.MethodPost, "/market_buy",
		map[string]any{"strategy": "s", "symbol": "QQQ", "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Executed bool   `json:"executed"`
		Reason   string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Executed)
	assert.Equal(t, "KILL_SWITCH", resp.Reason)
}

type downBroker struct{}

func (downBroker) SubmitMarketOrder(context.Context, broker.MarketOrderRequest) error {
	return assert.AnError
}
func (downBroker) GetFillPrice(context.Context, string, time.Time) (float64, error) {
	return 0, assert.AnError
}
func (downBroker) GetCurrentPrice(context.Context, string) (float64, error) {
	return 0, assert.AnError
}

func TestBrokerFailureRecordsError(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	orch := trader.New(fx.led, gate.New(gate.DefaultPolicy(), fx.store, fx.book), fx.book, downBroker{}, nil)
	orch.Now = func() time.Time { return tradingHour }
	fx.srv = New(orch, fx.book, fx.store, testToken)

	w := fx.do(t, http.MethodPost, "/market_buy",
		map[string]any{"strategy": "s", "symbol": "QQQ", "quantity": 1})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	day, err := fx.book.ErrorsForDate(market.Date(tradingHour))
	require.NoError(t, err)
	require.Len(t, day.Errors, 1)
	assert.Contains(t, day.Errors[0], "/market_buy")
}

func TestAddUnavailableDate(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	w := fx.do(t, http.MethodPost, "/add_unavailable_date",
		map[string]any{"date": "2023-07-04"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, fx.store.IsBlackout("2023-07-04"))

	w = fx.do(t, http.MethodPost, "/add_unavailable_date", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = fx.do(t, http.MethodPost, "/add_unavailable_date",
		map[string]any{"date": "July 4th"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStopAndStart(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	w := fx.do(t, http.MethodGet, "/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, fx.store.Eligible())

	w = fx.do(t, http.MethodGet, "/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, fx.store.Eligible())
}

func TestConfigSnapshot(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	require.NoError(t, fx.store.AddBlackoutDate("2023-12-25", "test"))

	w := fx.do(t, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg config.Trading
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.True(t, cfg.EligibleToTrade)
	assert.Equal(t, []string{"2023-12-25"}, cfg.DatesUnavailableToTrade)
}

func TestLogbookQueries(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	tr := logbook.Trade{
		ID: "a", Timestamp: tradingHour, Instruction: market.BuyToOpen,
		Symbol: "QQQ", Quantity: 10, Price: 355.20, Strategy: "macd-cross",
	}
	require.NoError(t, fx.book.AppendTrade(tr))

	date := market.Date(tradingHour)
	week := market.WeekBucket(tradingHour)

	w := fx.do(t, http.MethodGet, "/logbook?type=orders&date="+date, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var day logbook.OrderDay
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &day))
	assert.Len(t, day.Trades, 1)

	w = fx.do(t, http.MethodGet, "/logbook?type=orders&week="+week, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var days []logbook.OrderDay
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &days))
	assert.Len(t, days, 1)

	// Date takes priority over week when both are present.
	w = fx.do(t, http.MethodGet, "/logbook?type=orders&date="+date+"&week="+week, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &day))
	assert.Equal(t, date, day.Date)

	w = fx.do(t, http.MethodGet, "/logbook?type=orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = fx.do(t, http.MethodGet, "/logbook?type=orders&date=2023-06-14", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = fx.do(t, http.MethodGet, "/logbook?type=journal", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCloseAllEndpoint(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	fx.broker.SetQuote("QQQ", 355.20)

	w := fx.do(t, http.MethodPost, "/market_buy",
		map[string]any{"strategy": "macd-cross", "symbol": "QQQ", "quantity": 10})
	require.Equal(t, http.StatusOK, w.Code)

	w = fx.do(t, http.MethodPost, "/market_close_all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, market.None, fx.led.Get("macd-cross").Position)
}
