package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories/mock"
)

// TestSanitizeDetails_RedactsSensitiveFields tests redaction of denylisted
// fields, including nested objects and arrays
func TestSanitizeDetails_RedactsSensitiveFields(t *testing.T) {
	details := map[string]interface{}{
		"method": "POST",
		"body": map[string]interface{}{
			"email":        "admin@example.com",
			"password":     "hunter2",
			"newPassword":  "hunter3",
			"refreshToken": "abc.def.ghi",
			"apiKey":       "sk-12345",
			"clientSecret": "shhh",
			"items": []interface{}{
				map[string]interface{}{"token": "nested"},
			},
		},
	}

	raw, err := SanitizeDetails(details)
	if err != nil {
		t.Fatalf("SanitizeDetails failed: %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal sanitized details: %v", err)
	}

	body := out["body"].(map[string]interface{})
	if body["email"] != "admin@example.com" {
		t.Errorf("expected email to survive, got %v", body["email"])
	}
	for _, field := range []string{"password", "newPassword", "refreshToken", "apiKey", "clientSecret"} {
		if body[field] != RedactionMarker {
			t.Errorf("expected %s to be redacted, got %v", field, body[field])
		}
	}

	nested := body["items"].([]interface{})[0].(map[string]interface{})
	if nested["token"] != RedactionMarker {
		t.Errorf("expected nested token to be redacted, got %v", nested["token"])
	}
}

// TestSanitizeDetails_Nil tests the empty case
func TestSanitizeDetails_Nil(t *testing.T) {
	raw, err := SanitizeDetails(nil)
	if err != nil {
		t.Fatalf("SanitizeDetails failed: %v", err)
	}
	if raw != nil {
		t.Errorf("expected nil output for nil details, got %s", raw)
	}
}

// TestIsSensitiveField tests the denylist matching rules
func TestIsSensitiveField(t *testing.T) {
	sensitive := []string{"password", "Password", "newPassword", "token", "refreshToken", "secret", "apiKey", "APIKEY"}
	for _, name := range sensitive {
		if !IsSensitiveField(name) {
			t.Errorf("expected %q to be sensitive", name)
		}
	}

	safe := []string{"email", "role", "id", "amount"}
	for _, name := range safe {
		if IsSensitiveField(name) {
			t.Errorf("expected %q to be safe", name)
		}
	}
}

// TestRecord_WritesAsynchronously tests that Record persists the entry off
// the caller's path
func TestRecord_WritesAsynchronously(t *testing.T) {
	repo := mock.NewAuditLogRepository()
	as := NewAuditServiceWithRepo(repo)

	entry := &models.AuditLogEntry{
		AdminID:    uuid.New(),
		Action:     models.AuditActionCreate,
		Resource:   models.ResourceAdmin,
		StatusCode: 201,
		IPAddress:  "203.0.113.7",
	}
	as.Record(entry)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(repo.Snapshot()) == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	entries := repo.Snapshot()
	if len(entries) != 1 {
		t.Fatalf("expected 1 persisted entry, got %d", len(entries))
	}
	got := entries[0]
	if got.ID == uuid.Nil {
		t.Error("expected Record to assign an id")
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected Record to stamp created_at")
	}
	if got.Action != models.AuditActionCreate || got.Resource != models.ResourceAdmin {
		t.Errorf("unexpected entry persisted: %+v", got)
	}
}

// TestList_ClampsLimit tests the limit bounds
func TestList_ClampsLimit(t *testing.T) {
	repo := mock.NewAuditLogRepository()
	as := NewAuditServiceWithRepo(repo)

	if _, err := as.List(context.Background(), 0, 0); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if _, err := as.List(context.Background(), 1000, 0); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	limits := repo.Calls["List"]
	if len(limits) != 2 {
		t.Fatalf("expected 2 List calls, got %d", len(limits))
	}
	for _, l := range limits {
		if l.(int) != 50 {
			t.Errorf("expected out-of-range limit to clamp to 50, got %v", l)
		}
	}
}
