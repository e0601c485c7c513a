package realtime

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/phrazzld/taskhive-api/internal/platform/logger"
	"github.com/phrazzld/taskhive-api/internal/service/auth"
)

// Handler upgrades authenticated HTTP requests to WebSocket connections and
// binds them into the session registry. Authentication happens before the
// upgrade: a request without a valid access token is rejected with 401 and
// never reaches the registry.
type Handler struct {
	registry   *Registry
	jwtService auth.JWTService
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a WebSocket handler backed by the given registry and
// token validator.
func NewHandler(registry *Registry, jwtService auth.JWTService, logger *slog.Logger) *Handler {
	if registry == nil {
		panic("registry cannot be nil")
	}
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		registry:   registry,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With(slog.String("component", "ws_handler")),
	}
}

// Serve handles GET /ws. The access token is taken from the Authorization
// header or, for browser WebSocket clients that cannot set headers, from the
// "token" query parameter.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	tokenString := extractToken(r)
	if tokenString == "" {
		log.Debug("websocket connection rejected: missing token")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtService.ValidateToken(ctx, tokenString)
	if err != nil {
		log.Debug("websocket connection rejected: invalid token",
			slog.String("error", err.Error()))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade writes the HTTP error response itself.
		log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	session := NewSession(claims.UserID, wsConn)
	h.registry.Bind(claims.UserID, session)
	log.Debug("websocket session bound",
		slog.String("user_id", claims.UserID.String()))

	go h.readLoop(wsConn, session, log)
}

// readLoop drains inbound frames until the peer disconnects. The server
// pushes only; client frames are discarded. On exit the session is unbound
// unless a newer connection has already replaced it.
func (h *Handler) readLoop(wsConn *websocket.Conn, session *Session, log *slog.Logger) {
	defer func() {
		h.registry.UnbindSession(session.UserID, session)
		_ = wsConn.Close()
		log.Debug("websocket session closed",
			slog.String("user_id", session.UserID.String()))
	}()

	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			return
		}
	}
}

// extractToken pulls the bearer token from the Authorization header, falling
// back to the "token" query parameter.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
