package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/dto"

	"github.com/gtank/cryptopasta"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const qrCodeSize = 200

var (
	ErrMFANotConfigured = errors.New("mfa sealing key is not configured")
	ErrInvalidMFASecret = errors.New("stored mfa secret is invalid")
)

type MFAService struct {
	issuer string
	key    *[32]byte
	now    func() time.Time
}

func NewMFAService(cfg *config.MFAConfig) MFAServiceInterface {
	return &MFAService{
		issuer: cfg.Issuer,
		key:    cfg.SealingKey,
		now:    time.Now,
	}
}

// Enroll creates a TOTP secret for the account and renders the provisioning
// URL as a PNG data URL.
func (s *MFAService) Enroll(accountName string) (*dto.MFAEnrollment, error) {
	if s.key == nil {
		return nil, ErrMFANotConfigured
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	qr, err := renderQRCode(key)
	if err != nil {
		return nil, err
	}

	sealed, err := s.seal(key.Secret())
	if err != nil {
		return nil, err
	}

	return &dto.MFAEnrollment{
		Secret:       key.Secret(),
		URL:          key.URL(),
		QRCode:       qr,
		SealedSecret: sealed,
	}, nil
}

// Verify opens the sealed secret and checks the code against the current
// time step, allowing one step of clock skew.
func (s *MFAService) Verify(sealedSecret, code string) (bool, error) {
	if s.key == nil {
		return false, ErrMFANotConfigured
	}

	secret, err := s.open(sealedSecret)
	if err != nil {
		return false, err
	}

	ok, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		// malformed codes are a failed attempt, not a server fault
		return false, nil
	}
	return ok, nil
}

func (s *MFAService) seal(secret string) (string, error) {
	ciphertext, err := cryptopasta.Encrypt([]byte(secret), s.key)
	if err != nil {
		return "", fmt.Errorf("failed to seal mfa secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func (s *MFAService) open(sealed string) (string, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMFASecret, err)
	}
	plaintext, err := cryptopasta.Decrypt(ciphertext, s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMFASecret, err)
	}
	return string(plaintext), nil
}

func renderQRCode(key *otp.Key) (string, error) {
	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
