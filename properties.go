package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// minSigningKeyLen is the HS512 block size. Shorter keys are accepted but
// reported by Validate.
const minSigningKeyLen = 32

// TimeUnit is the unit the token validity is expressed in.
type TimeUnit string

const (
	UnitSeconds TimeUnit = "SECONDS"
	UnitMinutes TimeUnit = "MINUTES"
	UnitHours   TimeUnit = "HOURS"
	UnitDays    TimeUnit = "DAYS"
	UnitWeeks   TimeUnit = "WEEKS"
)

// UnmarshalText lets env decoding accept any case.
func (u *TimeUnit) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

func ParseTimeUnit(value string) (TimeUnit, error) {
	u := TimeUnit(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := unitDurations[u]; !ok {
		return "", fmt.Errorf("unknown time unit %q", value)
	}
	return u, nil
}

var unitDurations = map[TimeUnit]time.Duration{
	UnitSeconds: time.Second,
	UnitMinutes: time.Minute,
	UnitHours:   time.Hour,
	UnitDays:    24 * time.Hour,
	UnitWeeks:   7 * 24 * time.Hour,
}

// Duration of a single unit, zero for unknown units.
func (u TimeUnit) Duration() time.Duration {
	return unitDurations[u]
}

// KeyEncoding tells how the configured signing key string maps to HMAC key
// bytes.
type KeyEncoding string

const (
	// KeyEncodingRaw uses the bytes of the string as is.
	KeyEncodingRaw KeyEncoding = "RAW"
	// KeyEncodingBase64 decodes the string first, which is how services
	// built on jjwt's setSigningKey(String) read the same secret.
	KeyEncodingBase64 KeyEncoding = "BASE64"
)

// UnmarshalText accepts any case.
func (e *KeyEncoding) UnmarshalText(text []byte) error {
	switch v := KeyEncoding(strings.ToUpper(strings.TrimSpace(string(text)))); v {
	case "", KeyEncodingRaw:
		*e = KeyEncodingRaw
	case KeyEncodingBase64:
		*e = v
	default:
		return fmt.Errorf("unknown key encoding %q", string(text))
	}
	return nil
}

// SecurityProperties configures token signing and lifetime.
type SecurityProperties struct {
	SigningKey  string      `env:"SIGNING_KEY"`
	KeyEncoding KeyEncoding `env:"KEY_ENCODING" envDefault:"RAW"`
	Validity    int64       `env:"VALIDITY" envDefault:"1"`
	Unit        TimeUnit    `env:"UNIT" envDefault:"DAYS"`
}

// DefaultSecurityProperties returns a one day lifetime without a key.
func DefaultSecurityProperties() SecurityProperties {
	return SecurityProperties{KeyEncoding: KeyEncodingRaw, Validity: 1, Unit: UnitDays}
}

// KeyBytes returns the HMAC key. Base64 keys may omit their padding.
func (p SecurityProperties) KeyBytes() ([]byte, error) {
	switch p.KeyEncoding {
	case "", KeyEncodingRaw:
		return []byte(p.SigningKey), nil
	case KeyEncodingBase64:
		key, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(p.SigningKey, "="))
		if err != nil {
			return nil, fmt.Errorf("security: signing key is not valid base64: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("security: unknown key encoding %q", p.KeyEncoding)
	}
}

// TTL is the token lifetime.
func (p SecurityProperties) TTL() time.Duration {
	return time.Duration(p.Validity) * p.Unit.Duration()
}

// Validate rejects configurations that cannot sign a usable token.
func (p SecurityProperties) Validate() error {
	var errs []error
	if p.SigningKey == "" {
		errs = append(errs, errors.New("security: signing key is required"))
	} else if _, err := p.KeyBytes(); err != nil {
		errs = append(errs, err)
	}
	if p.Validity <= 0 {
		errs = append(errs, fmt.Errorf("security: validity must be positive, got %d", p.Validity))
	}
	if p.Unit.Duration() == 0 {
		errs = append(errs, fmt.Errorf("security: unknown time unit %q", p.Unit))
	}
	return errors.Join(errs...)
}

// WeakKey reports a signing key shorter than the HS512 block size.
func (p SecurityProperties) WeakKey() bool {
	key, err := p.KeyBytes()
	return err == nil && len(key) > 0 && len(key) < minSigningKeyLen
}
