package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

// NewHandler constructs a health Handler over the central directory client.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

type healthResponse struct {
	Status    string `json:"status"`
	Directory string `json:"directory"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and { "status":"ok", "directory":"connected" }.
// When the central directory is unreachable: 503.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		httpjson.Write(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "error",
			Directory: "disconnected",
			Message:   "Directory database unavailable",
			Error:     err.Error(),
		})
		return
	}

	httpjson.OK(w, healthResponse{Status: "ok", Directory: "connected"})
}
