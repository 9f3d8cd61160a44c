package handler

import (
	"net/http"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhive/backend/api/transport"
	"github.com/taskhive/backend/domain"
	"github.com/taskhive/backend/internal/realtime"
	"github.com/taskhive/backend/pkg/httpcontext"
	authUC "github.com/taskhive/backend/usecase/auth"
)

// WSHandler upgrades authenticated clients onto the realtime channel. The
// token travels as a query parameter because browser websocket clients cannot
// set headers on the handshake.
type WSHandler struct {
	baseHandler
	auth     *authUC.UseCase
	hub      *realtime.Hub
	router   *realtime.Router
	cfg      realtime.ConnConfig
	upgrader websocket.FastHTTPUpgrader
}

func NewWSHandler(
	auth *authUC.UseCase,
	hub *realtime.Hub,
	router *realtime.Router,
	cfg realtime.ConnConfig,
	adapter *httpcontext.Adapter,
	logger *zap.Logger,
) *WSHandler {
	return &WSHandler{
		baseHandler: newBaseHandler(adapter, logger),
		auth:        auth,
		hub:         hub,
		router:      router,
		cfg:         cfg,
		upgrader: websocket.FastHTTPUpgrader{
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool { return true },
		},
	}
}

// @Summary Realtime channel
// @Tags realtime
// @Router /ws [get]
func (h *WSHandler) Connect(ctx *fasthttp.RequestCtx) {
	token := string(ctx.QueryArgs().Peek("token"))
	if token == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing token", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	identity, err := h.auth.Identify(stdCtx, token)
	cancel()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	client := realtime.NewClient(identity, h.cfg.SendBuffer)

	err = h.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		if err := h.hub.Admit(client); err != nil {
			h.logger.Warn("admission rejected",
				zap.String("connection_id", client.ID()), zap.Error(err))
			conn.Close()
			return
		}
		go client.WritePump(conn, h.cfg, h.logger)
		client.ReadPump(conn, h.hub, h.router, h.cfg, h.logger)
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}
