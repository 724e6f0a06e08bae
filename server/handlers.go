package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/logx"
	"github.com/ganchinyao/tos-algo-trade/market"
	"github.com/ganchinyao/tos-algo-trade/metrics"
	"github.com/ganchinyao/tos-algo-trade/trader"
)

// tradeRequest is the body of every trade intent route.
type tradeRequest struct {
	Strategy string  `json:"strategy"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`

	// Instruction is only read by /market_order.
	Instruction string `json:"instruction"`
}

func (r tradeRequest) validate() error {
	if r.Strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return nil
}

func (s *Server) handleMarketBuy(c *gin.Context) {
	s.trade(c, s.orch.MarketBuy)
}

func (s *Server) handleMarketSell(c *gin.Context) {
	s.trade(c, s.orch.MarketSell)
}

// handleMarketOrder dispatches on the body's instruction so webhook senders
// can use a single endpoint for both directions.
func (s *Server) handleMarketOrder(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	switch strings.ToUpper(req.Instruction) {
	case string(market.Buy):
		s.runTrade(c, req, s.orch.MarketBuy)
	case string(market.Sell):
		s.runTrade(c, req, s.orch.MarketSell)
	default:
		c.JSON(http.StatusUnprocessableEntity,
			gin.H{"error": fmt.Sprintf("instruction must be BUY or SELL, got %q", req.Instruction)})
	}
}

type tradeFunc func(ctx context.Context, strategy, symbol string, qty float64) (trader.Result, error)

func (s *Server) trade(c *gin.Context, run tradeFunc) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	s.runTrade(c, req, run)
}

func (s *Server) runTrade(c *gin.Context, req tradeRequest, run tradeFunc) {
	if err := req.validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	res, err := run(c.Request.Context(), req.Strategy, req.Symbol, req.Quantity)
	if err != nil {
		s.recordError(fmt.Sprintf("%s %s %s: %v", req.Strategy, req.Symbol, c.FullPath(), err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"executed":    res.Executed,
		"instruction": res.Instruction,
		"quantity":    res.Quantity,
		"price":       res.Price,
		"reason":      res.Reason,
	})
}

func (s *Server) handleCloseAll(c *gin.Context) {
	if err := s.orch.CloseAll(c.Request.Context()); err != nil {
		s.recordError(fmt.Sprintf("close all: %v", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAddUnavailableDate(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Date == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "date is required, format YYYY-MM-DD"})
		return
	}

	if err := s.store.AddBlackoutDate(req.Date, actor(c)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "date": req.Date})
}

// handleLogbook serves one of the three record kinds. When both date and
// week are supplied, date wins; with neither, the whole history is
// returned.
func (s *Server) handleLogbook(c *gin.Context) {
	kind := c.DefaultQuery("type", "orders")
	date := c.Query("date")
	week := c.Query("week")

	var (
		out any
		err error
	)
	switch kind {
	case "orders":
		switch {
		case date != "":
			out, err = s.book.OrdersForDate(date)
		case week != "":
			out, err = s.book.OrdersForWeek(week)
		default:
			out, err = s.book.AllOrders()
		}
	case "summary":
		switch {
		case date != "":
			out, err = s.book.SummaryForDate(date)
		case week != "":
			out, err = s.book.SummariesForWeek(week)
		default:
			out, err = s.book.AllSummaries()
		}
	case "error":
		switch {
		case date != "":
			out, err = s.book.ErrorsForDate(date)
		case week != "":
			out, err = s.book.ErrorsForWeek(week)
		default:
			out, err = s.book.AllErrors()
		}
	default:
		c.JSON(http.StatusUnprocessableEntity,
			gin.H{"error": fmt.Sprintf("type must be orders, summary or error, got %q", kind)})
		return
	}

	if err != nil {
		if errors.Is(err, logbook.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no records"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleStop(c *gin.Context) {
	if err := s.store.SetKillSwitch(false, actor(c)); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	logx.Warn("kill switch engaged", "actor", actor(c))
	c.JSON(http.StatusOK, gin.H{"eligibleToTrade": false})
}

func (s *Server) handleStart(c *gin.Context) {
	if err := s.store.SetKillSwitch(true, actor(c)); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	logx.Info("trading resumed", "actor", actor(c))
	c.JSON(http.StatusOK, gin.H{"eligibleToTrade": true})
}

func (s *Server) recordError(msg string) {
	metrics.ErrorRecorded()
	if err := s.book.RecordError(s.orch.Now(), msg); err != nil {
		logx.Error("record error failed", "err", err)
	}
}

func actor(c *gin.Context) string {
	return "api:" + c.ClientIP()
}
