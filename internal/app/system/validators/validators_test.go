package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/authhub/internal/app/system/validators"
	"github.com/dalemusser/authhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}
	for _, expected := range []string{"users", "audit_events"} {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func validUser() bson.M {
	now := time.Now().UTC()
	return bson.M{
		"email":         "a@x.com",
		"full_name":     "Alice",
		"auth_provider": "local",
		"is_active":     true,
		"is_verified":   false,
		"created_at":    now,
		"updated_at":    now,
	}
}

func TestUsersValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(bson.M)
		wantErr bool
	}{
		{"valid local", func(bson.M) {}, false},
		{"valid google with phone", func(d bson.M) {
			d["auth_provider"] = "google"
			d["phone_number"] = "+15551234567"
		}, false},
		{"missing email", func(d bson.M) { delete(d, "email") }, true},
		{"unknown provider", func(d bson.M) { d["auth_provider"] = "github" }, true},
		{"uppercase email", func(d bson.M) { d["email"] = "A@X.com" }, true},
		{"string is_active", func(d bson.M) { d["is_active"] = "yes" }, true},
		{"formatted phone", func(d bson.M) { d["phone_number"] = "555-123-4567" }, true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validUser()
			doc["full_name"] = tt.name
			doc["email"] = "user" + string(rune('a'+i)) + "@x.com"
			tt.mutate(doc)

			_, err := db.Collection("users").InsertOne(ctx, doc)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected insert to succeed, got %v", err)
			}
		})
	}
}

func TestAuditEventsValidator_RequiredFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := db.Collection("audit_events").InsertOne(ctx, bson.M{"event_type": "login_success"}); err == nil {
		t.Error("expected validation error for incomplete audit event")
	}
	_, err := db.Collection("audit_events").InsertOne(ctx, bson.M{
		"created_at": time.Now().UTC(),
		"category":   "auth",
		"event_type": "login_success",
		"success":    true,
	})
	if err != nil {
		t.Errorf("Insert valid audit event failed: %v", err)
	}
}
