package services

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

// TestGenerateSecret tests enrollment material generation
func TestGenerateSecret(t *testing.T) {
	ts := NewTOTPService("SalesPilot Admin")

	secret, otpauthURL, err := ts.GenerateSecret("admin@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	if secret == "" {
		t.Fatal("expected non-empty secret")
	}
	if !strings.HasPrefix(otpauthURL, "otpauth://totp/") {
		t.Errorf("expected otpauth URL, got %s", otpauthURL)
	}
	if !strings.Contains(otpauthURL, "admin%40example.com") && !strings.Contains(otpauthURL, "admin@example.com") {
		t.Errorf("expected account name in URL, got %s", otpauthURL)
	}
}

// TestVerifyCode_ValidCode tests that a code generated for the current time
// step is accepted
func TestVerifyCode_ValidCode(t *testing.T) {
	ts := NewTOTPService("SalesPilot Admin")

	secret, _, err := ts.GenerateSecret("admin@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}

	if !ts.VerifyCode(secret, code) {
		t.Error("expected current code to be accepted")
	}
}

// TestVerifyCode_ClockDrift tests the ±2 step tolerance window
func TestVerifyCode_ClockDrift(t *testing.T) {
	ts := NewTOTPService("SalesPilot Admin")

	secret, _, err := ts.GenerateSecret("admin@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}

	// One step behind is inside the skew window
	code, err := totp.GenerateCode(secret, time.Now().Add(-30*time.Second))
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if !ts.VerifyCode(secret, code) {
		t.Error("expected code one step behind to be accepted")
	}

	// Five steps behind is well outside it
	code, err = totp.GenerateCode(secret, time.Now().Add(-150*time.Second))
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if ts.VerifyCode(secret, code) {
		t.Error("expected code five steps behind to be rejected")
	}
}

// TestVerifyCode_WrongCode tests rejection of a bad code
func TestVerifyCode_WrongCode(t *testing.T) {
	ts := NewTOTPService("SalesPilot Admin")

	secret, _, err := ts.GenerateSecret("admin@example.com")
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}

	if ts.VerifyCode(secret, "000000") && ts.VerifyCode(secret, "123456") {
		t.Error("expected at least one arbitrary code to be rejected")
	}
	if ts.VerifyCode(secret, "not-a-code") {
		t.Error("expected malformed code to be rejected")
	}
}

// TestGenerateBackupCodes tests that codes come back plaintext once with
// matching hashes
func TestGenerateBackupCodes(t *testing.T) {
	ts := NewTOTPService("SalesPilot Admin")

	plain, hashes, err := ts.GenerateBackupCodes()
	if err != nil {
		t.Fatalf("GenerateBackupCodes failed: %v", err)
	}
	if len(plain) != 10 || len(hashes) != 10 {
		t.Fatalf("expected 10 codes and 10 hashes, got %d and %d", len(plain), len(hashes))
	}

	seen := make(map[string]bool)
	for i, code := range plain {
		if code == "" {
			t.Fatalf("code %d is empty", i)
		}
		if seen[code] {
			t.Fatalf("duplicate backup code generated: %s", code)
		}
		seen[code] = true
		if strings.HasPrefix(hashes[i], code) {
			t.Error("hashes must not contain the plaintext code")
		}
	}
}

// TestRedeemBackupCode_ConsumedOnce tests that a backup code works exactly once
func TestRedeemBackupCode_ConsumedOnce(t *testing.T) {
	ts := NewTOTPService("SalesPilot Admin")

	plain, hashes, err := ts.GenerateBackupCodes()
	if err != nil {
		t.Fatalf("GenerateBackupCodes failed: %v", err)
	}

	remaining, matched := ts.RedeemBackupCode(hashes, plain[3])
	if !matched {
		t.Fatal("expected backup code to match")
	}
	if len(remaining) != len(hashes)-1 {
		t.Fatalf("expected %d remaining hashes, got %d", len(hashes)-1, len(remaining))
	}

	// Second redemption against the remaining set must fail
	if _, matched := ts.RedeemBackupCode(remaining, plain[3]); matched {
		t.Error("expected consumed backup code to be rejected")
	}
}

// TestRedeemBackupCode_NoMatch tests that a wrong code leaves the set intact
func TestRedeemBackupCode_NoMatch(t *testing.T) {
	ts := NewTOTPService("SalesPilot Admin")

	_, hashes, err := ts.GenerateBackupCodes()
	if err != nil {
		t.Fatalf("GenerateBackupCodes failed: %v", err)
	}

	remaining, matched := ts.RedeemBackupCode(hashes, "WRONGCODE")
	if matched {
		t.Error("expected no match for a wrong code")
	}
	if len(remaining) != len(hashes) {
		t.Errorf("expected hash set to be unchanged, got %d of %d", len(remaining), len(hashes))
	}
}
