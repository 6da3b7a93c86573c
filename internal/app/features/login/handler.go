package login

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/dueshub/internal/app/store/audit"
	userstore "github.com/dalemusser/dueshub/internal/app/store/users"
	"github.com/dalemusser/dueshub/internal/app/system/auditlog"
	"github.com/dalemusser/dueshub/internal/app/system/auth"
	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users    *userstore.Store
	Sessions *auth.SessionManager
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, sessions *auth.SessionManager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Sessions: sessions,
		Audit:    auditLog,
		Log:      logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	SiteAdmin bool   `json:"site_admin,omitempty"`
}

// HandleLogin handles POST /api/login.
//
// All credential failures return the same 401 body so the response does not
// reveal whether the email exists.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByEmailCI(ctx, req.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.Audit.Auth(ctx, r, audit.EventLoginFailedUserNotFound, nil, false, "user not found")
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		httpjson.InternalError(w, h.Log, "login: fetch user", err)
		return
	}

	if user.Status != "active" {
		h.Audit.Auth(ctx, r, audit.EventLoginFailedUserDisabled, &user.ID, false, "account disabled")
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if len(user.PasswordHash) == 0 {
		// Google-only account; no password to check.
		h.Audit.Auth(ctx, r, audit.EventLoginFailedWrongPassword, &user.ID, false, "no password set")
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		h.Audit.Auth(ctx, r, audit.EventLoginFailedWrongPassword, &user.ID, false, "wrong password")
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if _, err := h.Sessions.SignIn(w, r, user); err != nil {
		httpjson.InternalError(w, h.Log, "login: save session", err)
		return
	}

	h.Audit.Auth(ctx, r, audit.EventLoginSuccess, &user.ID, true, "")
	httpjson.OK(w, loginResponse{
		ID:        user.ID.Hex(),
		FullName:  user.FullName,
		Email:     user.Email,
		SiteAdmin: user.IsSiteAdmin,
	})
}
