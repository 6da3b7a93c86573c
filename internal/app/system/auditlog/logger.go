// internal/app/system/auditlog/logger.go

// Package auditlog records who did what: sign-ins, organization changes,
// membership grants, and voided contributions. Events go to the central
// directory database and, depending on configuration, to structured logs.
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/dueshub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Modes for each event category: "all" (db + log), "db", "log", or "off".
type Config struct {
	Auth  string
	Admin string
}

// Logger writes audit events per category configuration.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates an audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// Auth records an authentication event for userID (nil when the user could
// not be resolved, e.g. unknown email).
func (l *Logger) Auth(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, success bool, failureReason string) {
	l.write(ctx, l.config.Auth, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            clientIP(r),
		Success:       success,
		FailureReason: failureReason,
	})
}

// Admin records an administrative action by actorID, optionally scoped to
// an organization slug.
func (l *Logger) Admin(ctx context.Context, r *http.Request, eventType string, actorID *primitive.ObjectID, orgSlug, detail string) {
	l.write(ctx, l.config.Admin, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   actorID,
		OrgSlug:   orgSlug,
		IP:        clientIP(r),
		Success:   true,
		Detail:    detail,
	})
}

func (l *Logger) write(ctx context.Context, mode string, event audit.Event) {
	if mode == "off" {
		return
	}
	if mode == "all" || mode == "log" {
		l.toZap(event)
	}
	if (mode == "all" || mode == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			// Audit failures must not fail the request.
			l.zapLog.Error("audit event write failed", zap.Error(err))
		}
	}
}

func (l *Logger) toZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.OrgSlug != "" {
		fields = append(fields, zap.String("org_slug", event.OrgSlug))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	l.zapLog.Info("audit", fields...)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
