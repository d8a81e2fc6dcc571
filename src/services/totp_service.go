package services

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const backupCodeCount = 10

// TOTPService validates time-based one-time codes and manages 2FA enrollment
// material (secret, otpauth URL for the QR code, backup codes).
type TOTPService struct {
	issuer string
}

// NewTOTPService creates a new TOTP service
func NewTOTPService(issuer string) *TOTPService {
	if issuer == "" {
		issuer = "SalesPilot Admin"
	}
	return &TOTPService{issuer: issuer}
}

// GenerateSecret creates a new TOTP secret for an account. Returns the
// base32 secret and the otpauth:// URL used to render the QR code.
func (ts *TOTPService) GenerateSecret(email string) (secret, otpauthURL string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      ts.issuer,
		AccountName: email,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// VerifyCode validates a 6-digit code against the stored secret with a
// tolerance of ±2 time steps (±60 seconds) to absorb clock drift
func (ts *TOTPService) VerifyCode(secret, code string) bool {
	valid, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      2,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}

// GenerateBackupCodes creates single-use recovery codes. The plaintext codes
// are returned once to the caller; only the bcrypt hashes are stored.
func (ts *TOTPService) GenerateBackupCodes() (plain []string, hashes []string, err error) {
	plain = make([]string, backupCodeCount)
	hashes = make([]string, backupCodeCount)

	for i := 0; i < backupCodeCount; i++ {
		raw := make([]byte, 5) // 5 bytes = 8 base32 chars
		if _, err := rand.Read(raw); err != nil {
			return nil, nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)

		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to hash backup code: %w", err)
		}

		plain[i] = code
		hashes[i] = string(hash)
	}
	return plain, hashes, nil
}

// RedeemBackupCode checks a submitted code against the stored hashes.
// On a match it returns the remaining hashes with the consumed one removed.
func (ts *TOTPService) RedeemBackupCode(hashes []string, code string) (remaining []string, matched bool) {
	for i, hash := range hashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil {
			remaining = append(remaining, hashes[:i]...)
			remaining = append(remaining, hashes[i+1:]...)
			return remaining, true
		}
	}
	return hashes, false
}
