// Package server 对外提供快照、筛选、排行和交易清单的 HTTP 接口
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/vibedash/vibedash/internal/dashboard"
	"github.com/vibedash/vibedash/internal/market"
	"github.com/vibedash/vibedash/internal/ranking"
	"github.com/vibedash/vibedash/internal/tradelist"
)

var log = logrus.WithField("module", "server")

// Proxy 由 internal/proxy 实现
type Proxy interface {
	Handle(c *gin.Context)
}

type Server struct {
	state   *dashboard.State
	trades  *tradelist.Store
	proxy   Proxy
	timeout time.Duration
}

func New(state *dashboard.State, trades *tradelist.Store, proxy Proxy, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{state: state, trades: trades, proxy: proxy, timeout: timeout}
}

func (s *Server) Router() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/packs", s.handlePacks)
	api.GET("/packs/verified", s.handleVerified)
	api.GET("/activity", s.handleActivity)
	api.GET("/creators", s.handleCreators)
	api.GET("/rarities", func(c *gin.Context) { OkJson(c, rarityOptions()) })
	api.GET("/snapshot", s.handleSnapshot)
	api.POST("/refresh", s.handleRefresh)
	api.POST("/activity/refresh", s.handleActivityRefresh)
	api.GET("/profile/:address", s.handleProfile)

	trades := api.Group("/trades")
	trades.GET("", s.handleTradesList)
	trades.POST("", s.handleTradesAdd)
	trades.DELETE("/:id", s.handleTradesRemove)
	trades.POST("/import", s.handleTradesImport)

	if s.proxy != nil {
		api.Any("/wield/*path", s.proxy.Handle)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Debug("http")
	}
}

func (s *Server) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.timeout)
}

func (s *Server) handlePacks(c *gin.Context) {
	verifiedOnly, _ := strconv.ParseBool(c.DefaultQuery("verified", "false"))
	f := ranking.Filter{
		Query:        c.Query("q"),
		Rarity:       c.DefaultQuery("rarity", "ALL"),
		VerifiedOnly: verifiedOnly,
	}
	OkJson(c, s.state.FilterPacks(f))
}

func (s *Server) handleVerified(c *gin.Context) {
	OkJson(c, s.state.Snapshot().Verified)
}

func (s *Server) handleActivity(c *gin.Context) {
	events := s.state.Snapshot().Activity
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			Error(c, http.StatusBadRequest, "invalid limit")
			return
		}
		if n < len(events) {
			events = events[:n]
		}
	}
	OkJson(c, events)
}

func (s *Server) handleCreators(c *gin.Context) {
	OkJson(c, s.state.Snapshot().Creators)
}

func (s *Server) handleSnapshot(c *gin.Context) {
	OkJson(c, s.state.Snapshot())
}

func (s *Server) handleRefresh(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()
	if err := s.state.Refresh(ctx); err != nil {
		// 部分失败仍返回当前快照，msg 给出提示
		c.JSON(http.StatusOK, Response{Code: http.StatusBadGateway, Msg: err.Error(), Data: s.state.Snapshot()})
		return
	}
	OkJson(c, s.state.Snapshot())
}

func (s *Server) handleActivityRefresh(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()
	if err := s.state.RefreshActivity(ctx); err != nil {
		c.JSON(http.StatusOK, Response{Code: http.StatusBadGateway, Msg: err.Error(), Data: s.state.Snapshot().Activity})
		return
	}
	OkJson(c, s.state.Snapshot().Activity)
}

func (s *Server) handleProfile(c *gin.Context) {
	address := strings.TrimSpace(c.Param("address"))
	if !common.IsHexAddress(address) {
		Error(c, http.StatusBadRequest, "invalid wallet address")
		return
	}
	ctx, cancel := s.ctx(c)
	defer cancel()
	if err := s.state.SetWallet(ctx, address); err != nil {
		Error(c, http.StatusBadGateway, "profile endpoint unavailable: "+err.Error())
		return
	}
	OkJson(c, gin.H{"wallet": address, "boughtItems": s.state.Snapshot().BoughtItems})
}

func (s *Server) handleTradesList(c *gin.Context) {
	OkJson(c, s.trades.Items())
}

func (s *Server) handleTradesAdd(c *gin.Context) {
	var it tradelist.Item
	if err := c.ShouldBindJSON(&it); err != nil {
		Error(c, http.StatusBadRequest, "invalid body")
		return
	}
	created, err := s.trades.Add(it)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	OkJson(c, created)
}

func (s *Server) handleTradesRemove(c *gin.Context) {
	if err := s.trades.Remove(c.Param("id")); err != nil {
		Error(c, http.StatusNotFound, err.Error())
		return
	}
	OkJson(c, s.trades.Items())
}

type importRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleTradesImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body")
		return
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		address = s.state.Snapshot().Wallet
	}
	ctx, cancel := s.ctx(c)
	defer cancel()

	items, err := s.trades.ImportFromWallet(ctx, address)
	switch {
	case errors.Is(err, tradelist.ErrInvalidAddress):
		Error(c, http.StatusBadRequest, "connect wallet first")
	case errors.Is(err, tradelist.ErrImportUnavailable):
		Error(c, http.StatusBadGateway, tradelist.ErrImportUnavailable.Error())
	case err != nil:
		Error(c, http.StatusInternalServerError, err.Error())
	default:
		OkJson(c, items)
	}
}

// rarityOptions 筛选下拉框的选项
func rarityOptions() []string {
	out := []string{"ALL"}
	for _, r := range market.Rarities {
		out = append(out, string(r))
	}
	return out
}
