package logout

import (
	"net/http"

	"github.com/dalemusser/dueshub/internal/app/store/audit"
	"github.com/dalemusser/dueshub/internal/app/system/auditlog"
	"github.com/dalemusser/dueshub/internal/app/system/auth"
	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Sessions *auth.SessionManager
	Registry *tenant.Registry
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(sessions *auth.SessionManager, registry *tenant.Registry, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions: sessions,
		Registry: registry,
		Audit:    auditLog,
		Log:      logger,
	}
}

// HandleLogout handles POST /api/logout. Ending the session also drops the
// tenant state tracked for it, which releases any active organization
// connection.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	sid, err := h.Sessions.SignOut(w, r)
	if err != nil {
		httpjson.InternalError(w, h.Log, "logout: clear session", err)
		return
	}
	if sid != "" {
		h.Registry.Drop(r.Context(), sid)
	}

	if user != nil {
		if id, err := primitive.ObjectIDFromHex(user.ID); err == nil {
			h.Audit.Auth(r.Context(), r, audit.EventLogout, &id, true, "")
		}
	}
	httpjson.OK(w, map[string]string{"status": "signed_out"})
}
