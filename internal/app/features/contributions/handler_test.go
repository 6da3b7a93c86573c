package contributions_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/dueshub/internal/app/features/contributions"
	"github.com/dalemusser/dueshub/internal/app/store/audit"
	contributionstore "github.com/dalemusser/dueshub/internal/app/store/contributions"
	"github.com/dalemusser/dueshub/internal/app/system/auditlog"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/dalemusser/dueshub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *contributions.Handler {
	auditLog := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})
	return contributions.NewHandler(auditLog, zap.NewNop())
}

func tenantRequest(r *http.Request, db *mongo.Database) *http.Request {
	org := models.Organization{Slug: "acme", Name: "Acme Society", Status: models.OrgStatusActive}
	r = tenant.WithTestTenant(r, org, tenant.NewTestConn("acme", db))
	return testutil.WithUser(r, testutil.RegularUser())
}

func TestRecordAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Alice Ang")
	h := newHandler(db)

	req := tenantRequest(testutil.NewJSONRequest(t, "POST", "/organizations/acme/contributions", map[string]any{
		"member_id":    m.ID.Hex(),
		"amount_cents": 2500,
		"period":       "2026-08",
		"method":       "cash",
		"notes":        `paid at meeting<script>x()</script>`,
	}), db)
	rec := testutil.Do(h.Record, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record: status = %d; body %s", rec.Code, rec.Body.String())
	}
	var created models.Contribution
	testutil.DecodeJSON(t, rec, &created)
	if created.ReceiptNo == "" {
		t.Error("no receipt number assigned")
	}
	if created.Status != models.ContributionRecorded {
		t.Errorf("status = %q, want recorded", created.Status)
	}
	if created.Notes != "paid at meeting" {
		t.Errorf("notes = %q, want script stripped", created.Notes)
	}

	req = tenantRequest(testutil.NewRequest("GET", "/organizations/acme/contributions?period=2026-08"), db)
	rec = testutil.Do(h.List, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var resp struct {
		Contributions []models.Contribution `json:"contributions"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Contributions) != 1 {
		t.Fatalf("got %d contributions, want 1", len(resp.Contributions))
	}

	// A different period filter matches nothing.
	req = tenantRequest(testutil.NewRequest("GET", "/organizations/acme/contributions?period=2026-09"), db)
	rec = testutil.Do(h.List, req)
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Contributions) != 0 {
		t.Errorf("period filter leaked %d contributions", len(resp.Contributions))
	}
}

func TestList_FiltersByMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	alice := fx.CreateMember(ctx, "Alice Ang")
	bob := fx.CreateMember(ctx, "Bob Ray")
	h := newHandler(db)

	store := contributionstore.New(db)
	for _, memberID := range []primitive.ObjectID{alice.ID, alice.ID, bob.ID} {
		_, err := store.Record(ctx, models.Contribution{
			MemberID: memberID, AmountCents: 2500, Period: "2026-08",
			Method: models.PayMethodCash, RecordedBy: "tester",
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	req := tenantRequest(testutil.NewRequest("GET",
		"/organizations/acme/contributions?member="+alice.ID.Hex()), db)
	rec := testutil.Do(h.List, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d; body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Contributions []models.Contribution `json:"contributions"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Contributions) != 2 {
		t.Fatalf("got %d contributions for alice, want 2", len(resp.Contributions))
	}
	for _, c := range resp.Contributions {
		if c.MemberID != alice.ID {
			t.Errorf("member filter leaked contribution for %s", c.MemberID.Hex())
		}
	}

	// Member and period filters combine.
	req = tenantRequest(testutil.NewRequest("GET",
		"/organizations/acme/contributions?member="+bob.ID.Hex()+"&period=2026-08"), db)
	rec = testutil.Do(h.List, req)
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Contributions) != 1 {
		t.Errorf("got %d contributions for bob in 2026-08, want 1", len(resp.Contributions))
	}

	req = tenantRequest(testutil.NewRequest("GET",
		"/organizations/acme/contributions?member=not-a-hex-id"), db)
	rec = testutil.Do(h.List, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid member id: status = %d, want 400", rec.Code)
	}
}

func TestRecord_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Alice Ang")
	h := newHandler(db)

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"zero amount", map[string]any{"member_id": m.ID.Hex(), "amount_cents": 0, "period": "2026-08", "method": "cash"}, http.StatusBadRequest},
		{"negative amount", map[string]any{"member_id": m.ID.Hex(), "amount_cents": -5, "period": "2026-08", "method": "cash"}, http.StatusBadRequest},
		{"bad method", map[string]any{"member_id": m.ID.Hex(), "amount_cents": 100, "period": "2026-08", "method": "iou"}, http.StatusBadRequest},
		{"missing period", map[string]any{"member_id": m.ID.Hex(), "amount_cents": 100, "method": "cash"}, http.StatusBadRequest},
		{"unknown member", map[string]any{"member_id": primitive.NewObjectID().Hex(), "amount_cents": 100, "period": "2026-08", "method": "cash"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tenantRequest(testutil.NewJSONRequest(t, "POST", "/organizations/acme/contributions", tc.body), db)
			rec := testutil.Do(h.Record, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestVoid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Alice Ang")
	h := newHandler(db)

	store := contributionstore.New(db)
	c, err := store.Record(ctx, models.Contribution{
		MemberID: m.ID, AmountCents: 2500, Period: "2026-08",
		Method: models.PayMethodCash, RecordedBy: "tester",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	void := func(id string) int {
		req := tenantRequest(testutil.NewJSONRequest(t, "POST",
			"/organizations/acme/contributions/"+id+"/void",
			map[string]string{"reason": "entered twice"}), db)
		req = testutil.WithChiURLParam(req, "id", id)
		return testutil.Do(h.Void, req).Code
	}

	if code := void(c.ID.Hex()); code != http.StatusOK {
		t.Fatalf("void: status = %d", code)
	}
	if code := void(c.ID.Hex()); code != http.StatusConflict {
		t.Errorf("second void: status = %d, want 409", code)
	}
	if code := void(primitive.NewObjectID().Hex()); code != http.StatusNotFound {
		t.Errorf("void unknown: status = %d, want 404", code)
	}

	// Voided rows remain in the ledger but leave the totals.
	got, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get after void: %v", err)
	}
	if got.Status != models.ContributionVoided || got.VoidReason != "entered twice" {
		t.Errorf("after void: %+v", got)
	}
	totals, err := store.TotalsByPeriod(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if len(totals) != 0 {
		t.Errorf("totals include voided rows: %+v", totals)
	}
}
