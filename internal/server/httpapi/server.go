// Package httpapi is the webhook transport: it receives WhatsApp deliveries
// from Twilio, hands them to the orchestration engine and exposes the
// operational surface (health, readiness, metrics, admin send).
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/momentum-ia/momentum/internal/common"
	"github.com/momentum-ia/momentum/internal/logging"
	"github.com/momentum-ia/momentum/internal/server/auth"
	"github.com/momentum-ia/momentum/internal/server/config"
	"github.com/momentum-ia/momentum/internal/server/messaging"
	"github.com/momentum-ia/momentum/internal/server/orchestrator"
)

// TurnHandler is the engine surface the transport needs.
type TurnHandler interface {
	HandleTurn(ctx context.Context, msg orchestrator.InboundMessage) (*orchestrator.TurnResult, error)
}

type Server struct {
	echo       *echo.Echo
	engine     TurnHandler
	dispatcher messaging.Dispatcher
	db         *sql.DB
	config     *config.Config
	logger     logging.Logger
}

func NewServer(engine TurnHandler, dispatcher messaging.Dispatcher, db *sql.DB, cfg *config.Config, logger logging.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		echo:       e,
		engine:     engine,
		dispatcher: dispatcher,
		db:         db,
		config:     cfg,
		logger:     logger.With("module", "httpapi"),
	}

	e.POST("/whatsapp/webhook", s.handleWebhook)
	e.GET("/health", s.handleHealth)
	e.GET("/ready", s.handleReady)
	e.POST("/admin/send", s.handleAdminSend, s.requireToken)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleWebhook(c echo.Context) error {
	msg := orchestrator.InboundMessage{
		From:         c.FormValue("From"),
		Body:         c.FormValue("Body"),
		MediaURL:     c.FormValue("MediaUrl0"),
		FlowResponse: c.FormValue("FlowResponse"),
	}

	res, err := s.engine.HandleTurn(c.Request().Context(), msg)
	if err != nil {
		if errors.Is(err, common.ErrInvalidIdentifier) || errors.Is(err, common.ErrEmptyMessage) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		s.logger.Error(c.Request().Context(), "webhook turn failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	s.logger.Info(c.Request().Context(), "turn handled", "status", res.Status, "outcome", res.Outcome)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady checks the dependencies a turn actually needs. It answers 503
// with per-check detail until all of them pass.
func (s *Server) handleReady(c echo.Context) error {
	checks := map[string]string{}
	ready := true

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if s.config.TwilioAccountSID == "" || s.config.TwilioAuthToken == "" {
		checks["twilio"] = "credentials missing"
		ready = false
	} else {
		checks["twilio"] = "ok"
	}

	if s.config.OpenAIAPIKey == "" {
		checks["openai"] = "api key missing"
		ready = false
	} else {
		checks["openai"] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}
	return c.JSON(status, map[string]any{"status": state, "checks": checks})
}

type adminSendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *Server) handleAdminSend(c echo.Context) error {
	req := &adminSendRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.To == "" || req.Body == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "to and body are required"})
	}

	receipt, err := s.dispatcher.Send(c.Request().Context(), req.To, req.Body)
	if err != nil {
		s.logger.Error(c.Request().Context(), "admin send failed", "to", req.To, "error", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "sent", "sid": receipt.SID})
}

// requireToken guards the admin surface with the same HS256 tokens the
// GenerateToken helper issues.
func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		}

		operator, err := auth.GetSubjectFromToken(token, []byte(s.config.SecretKey))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}

		c.Set("operator", operator)
		return next(c)
	}
}
