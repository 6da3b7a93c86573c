package dashboard

import (
	"context"
	"net/http"

	contributionstore "github.com/dalemusser/dueshub/internal/app/store/contributions"
	memberstore "github.com/dalemusser/dueshub/internal/app/store/members"
	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type summary struct {
	Organization string                          `json:"organization"`
	Slug         string                          `json:"slug"`
	MemberCount  int64                           `json:"member_count"`
	DuesByPeriod []contributionstore.PeriodTotal `json:"dues_by_period"`
	Recent       []recentContribution            `json:"recent_contributions"`
}

type recentContribution struct {
	ReceiptNo   string `json:"receipt_no"`
	Member      string `json:"member"`
	AmountCents int64  `json:"amount_cents"`
	Period      string `json:"period"`
	Status      string `json:"status"`
}

// Serve handles GET /organizations/{slug}/dashboard: a summary of the
// resolved tenant. All reads go to the tenant database from the request
// context.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	info := tenant.FromRequest(r)
	db := info.DB()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members := memberstore.New(db)
	contribs := contributionstore.New(db)

	memberCount, err := members.Count(ctx)
	if err != nil {
		httpjson.InternalError(w, h.Log, "dashboard: count members", err)
		return
	}

	totals, err := contribs.TotalsByPeriod(ctx)
	if err != nil {
		httpjson.InternalError(w, h.Log, "dashboard: totals", err)
		return
	}

	recent, err := contribs.List(ctx, contributionstore.Filter{}, 10, 0)
	if err != nil {
		httpjson.InternalError(w, h.Log, "dashboard: recent contributions", err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(recent))
	for _, c := range recent {
		ids = append(ids, c.MemberID)
	}
	names, err := members.NamesByIDs(ctx, ids)
	if err != nil {
		httpjson.InternalError(w, h.Log, "dashboard: member names", err)
		return
	}

	out := summary{
		Organization: info.Org.Name,
		Slug:         info.Org.Slug,
		MemberCount:  memberCount,
		DuesByPeriod: totals,
	}
	for _, c := range recent {
		out.Recent = append(out.Recent, recentContribution{
			ReceiptNo:   c.ReceiptNo,
			Member:      names[c.MemberID.Hex()],
			AmountCents: c.AmountCents,
			Period:      c.Period,
			Status:      c.Status,
		})
	}
	httpjson.OK(w, out)
}
