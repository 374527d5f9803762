package mfa

import (
	"bytes"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"
	"time"
	"unicode"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	DefaultIssuer = "Blog Application"
	period        = 30
	qrSize        = 200
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Engine generates and verifies RFC 6238 codes: SHA1, six digits, 30 second steps.
type Engine struct {
	issuer string
	now    func() time.Time
}

func NewEngine(issuer string) *Engine {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Engine{issuer: issuer, now: time.Now}
}

func NewEngineWithClock(issuer string, now func() time.Time) *Engine {
	e := NewEngine(issuer)
	e.now = now
	return e
}

func (e *Engine) Issuer() string { return e.issuer }

// GenerateSecret returns a fresh base32 secret with no padding.
func (e *Engine) GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: e.issuer,
		Period:      period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return key.Secret(), nil
}

func (e *Engine) key(secret, accountLabel string) (*otp.Key, error) {
	raw, err := b32.DecodeString(strings.ToUpper(strings.TrimRight(secret, "=")))
	if err != nil {
		return nil, fmt.Errorf("decode totp secret: %w", err)
	}
	return totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: accountLabel,
		Period:      period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		Secret:      raw,
	})
}

// ProvisioningURI is the otpauth:// URI an authenticator app imports.
func (e *Engine) ProvisioningURI(secret, accountLabel string) (string, error) {
	key, err := e.key(secret, accountLabel)
	if err != nil {
		return "", err
	}
	return key.URL(), nil
}

// QRCodeDataURI renders the provisioning URI as a PNG data URI.
func (e *Engine) QRCodeDataURI(secret, accountLabel string) (string, error) {
	key, err := e.key(secret, accountLabel)
	if err != nil {
		return "", err
	}
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// VerifyCode accepts the current step and one step either side.
// Non-digits are stripped; empty input or an unusable secret never verifies.
func (e *Engine) VerifyCode(secret, code string) bool {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, code)
	if digits == "" || secret == "" {
		return false
	}

	ok, err := totp.ValidateCustom(digits, secret, e.now().UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
