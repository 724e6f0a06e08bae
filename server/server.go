// Package server exposes the administrative HTTP surface: trade intents,
// the kill switch, blackout dates, logbook queries and metrics. It is an
// operator API, not a public one; every mutating route sits behind the
// shared bearer token.
package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ganchinyao/tos-algo-trade/config"
	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/logx"
	"github.com/ganchinyao/tos-algo-trade/metrics"
	"github.com/ganchinyao/tos-algo-trade/trader"
)

type Server struct {
	orch   *trader.Orchestrator
	book   *logbook.Book
	store  *config.Store
	token  string
	engine *gin.Engine
}

func New(orch *trader.Orchestrator, book *logbook.Book, store *config.Store, authToken string) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		orch:  orch,
		book:  book,
		store: store,
		token: authToken,
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := r.Group("/", s.requireAuth)
	auth.POST("/market_buy", s.handleMarketBuy)
	auth.POST("/market_sell", s.handleMarketSell)
	auth.POST("/market_order", s.handleMarketOrder)
	auth.POST("/market_close_all", s.handleCloseAll)
	auth.POST("/add_unavailable_date", s.handleAddUnavailableDate)
	auth.GET("/logbook", s.handleLogbook)
	auth.GET("/config", s.handleConfig)
	auth.GET("/stop", s.handleStop)
	auth.GET("/start", s.handleStart)

	s.engine = r
	return s
}

// Handler returns the routed http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logx.Info("http server listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	got, ok := strings.CutPrefix(header, "Bearer ")
	if s.token == "" || !ok ||
		subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
