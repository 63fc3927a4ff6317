package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/chatgate/config"
	"github.com/mohammad-safakhou/chatgate/internal/chat"
	"github.com/mohammad-safakhou/chatgate/provider"
	"github.com/mohammad-safakhou/chatgate/tools/pdfextract"
	"github.com/mohammad-safakhou/chatgate/tools/web_search"
)

func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if err := cfg.LLM.Validate(); err != nil {
		return err
	}
	if err := cfg.Search.Validate(); err != nil {
		return err
	}

	// Initialize shared dependencies (top-level DI)
	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	var searcher web_search.WebSearcher
	if cfg.Search.APIKey != "" {
		searcher, err = web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), cfg.Search.APIKey)
		if err != nil {
			return err
		}
	} else {
		baseLogger.Printf("search api key not configured, web search disabled")
	}

	router := chat.NewRouter(searcher, cfg.Search.MaxResults, cfg.Document.TopK, cfg.Search.Timeout)
	registry := chat.NewRegistry(func(id string) *chat.Session {
		return chat.NewSession(id, llm, router, pdfextract.PDF{})
	})
	defer registry.Shutdown()

	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "chatgate_active_sessions",
		Help: "Live sessions in the registry",
	}, func() float64 { return float64(registry.Len()) }))

	sweepCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registry.RunSweeper(sweepCtx, cfg.Session.SweepSpec, cfg.Session.IdleTTL)

	api := e.Group("/api")
	sh := &SessionsHandler{Registry: registry, MaxUploadBytes: cfg.Server.MaxUploadMB << 20}
	sh.Register(api.Group("/sessions"))

	wh := NewWSHandler(registry)
	e.GET("/ws/:session_id", wh.Handle)

	return e.Start(cfg.Server.Address)
}
