package contributionstore_test

import (
	"errors"
	"testing"

	contributionstore "github.com/dalemusser/dueshub/internal/app/store/contributions"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/dalemusser/dueshub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func record(t *testing.T, store *contributionstore.Store, memberID primitive.ObjectID, period string, cents int64) models.Contribution {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c, err := store.Record(ctx, models.Contribution{
		MemberID:    memberID,
		Period:      period,
		AmountCents: cents,
		Method:      models.PayMethodCash,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	return c
}

func TestRecord_AssignsReceiptAndStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contributionstore.New(db)

	c := record(t, store, primitive.NewObjectID(), "2026-08", 2500)
	if c.ReceiptNo == "" {
		t.Error("expected a receipt number")
	}
	if c.Status != models.ContributionRecorded {
		t.Errorf("expected recorded status, got %q", c.Status)
	}
}

func TestRecord_RejectsNonPositiveAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := contributionstore.New(db)

	_, err := store.Record(ctx, models.Contribution{
		MemberID:    primitive.NewObjectID(),
		Period:      "2026-08",
		AmountCents: 0,
	})
	if !errors.Is(err, contributionstore.ErrBadAmount) {
		t.Fatalf("expected ErrBadAmount, got %v", err)
	}
}

func TestList_FiltersByMemberAndPeriod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := contributionstore.New(db)

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	record(t, store, alice, "2026-07", 2500)
	record(t, store, alice, "2026-08", 2500)
	record(t, store, bob, "2026-08", 1000)

	byMember, err := store.List(ctx, contributionstore.Filter{MemberID: alice}, 50, 0)
	if err != nil {
		t.Fatalf("list by member failed: %v", err)
	}
	if len(byMember) != 2 {
		t.Errorf("expected 2 for alice, got %d", len(byMember))
	}

	byPeriod, err := store.List(ctx, contributionstore.Filter{Period: "2026-08"}, 50, 0)
	if err != nil {
		t.Fatalf("list by period failed: %v", err)
	}
	if len(byPeriod) != 2 {
		t.Errorf("expected 2 for 2026-08, got %d", len(byPeriod))
	}

	both, err := store.List(ctx, contributionstore.Filter{MemberID: alice, Period: "2026-08"}, 50, 0)
	if err != nil {
		t.Fatalf("list by both failed: %v", err)
	}
	if len(both) != 1 {
		t.Errorf("expected 1 for alice in 2026-08, got %d", len(both))
	}
}

func TestVoid_ExcludedFromTotalsButKept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := contributionstore.New(db)

	kept := record(t, store, primitive.NewObjectID(), "2026-08", 2500)
	voided := record(t, store, primitive.NewObjectID(), "2026-08", 9900)

	if err := store.Void(ctx, voided.ID, "entered twice"); err != nil {
		t.Fatalf("void failed: %v", err)
	}

	totals, err := store.TotalsByPeriod(ctx)
	if err != nil {
		t.Fatalf("TotalsByPeriod failed: %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("expected 1 period, got %d", len(totals))
	}
	if totals[0].AmountCents != kept.AmountCents || totals[0].Count != 1 {
		t.Errorf("voided rows must not count: got %+v", totals[0])
	}

	// The voided row stays in the ledger.
	got, err := store.GetByID(ctx, voided.ID)
	if err != nil {
		t.Fatalf("GetByID after void failed: %v", err)
	}
	if got.Status != models.ContributionVoided {
		t.Errorf("expected voided status, got %q", got.Status)
	}
	if got.VoidReason != "entered twice" {
		t.Errorf("expected void reason recorded, got %q", got.VoidReason)
	}
}

func TestVoid_RepeatAndUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := contributionstore.New(db)

	c := record(t, store, primitive.NewObjectID(), "2026-08", 2500)
	if err := store.Void(ctx, c.ID, "mistake"); err != nil {
		t.Fatalf("void failed: %v", err)
	}

	err := store.Void(ctx, c.ID, "again")
	if !errors.Is(err, contributionstore.ErrAlreadyVoided) {
		t.Fatalf("expected ErrAlreadyVoided, got %v", err)
	}

	err = store.Void(ctx, primitive.NewObjectID(), "ghost")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestTotalsByPeriod_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := contributionstore.New(db)

	record(t, store, primitive.NewObjectID(), "2026-07", 1000)
	record(t, store, primitive.NewObjectID(), "2026-08", 2500)
	record(t, store, primitive.NewObjectID(), "2026-08", 2500)

	totals, err := store.TotalsByPeriod(ctx)
	if err != nil {
		t.Fatalf("TotalsByPeriod failed: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(totals))
	}
	if totals[0].Period != "2026-08" || totals[0].AmountCents != 5000 || totals[0].Count != 2 {
		t.Errorf("unexpected first period: %+v", totals[0])
	}
	if totals[1].Period != "2026-07" || totals[1].AmountCents != 1000 {
		t.Errorf("unexpected second period: %+v", totals[1])
	}
}
