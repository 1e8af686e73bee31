package session

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"statuslookup/application"
	"statuslookup/wizard"
)

// ErrInvalidToken signals a wizard token that is expired, tampered with or
// otherwise unreadable.
var ErrInvalidToken = errors.New("session: invalid token")

const (
	issuer  = "statuslookup"
	keyInfo = "statuslookup wizard session v1"
)

// Codec turns wizard snapshots into signed, expiring tokens and back.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// wizardClaims is the token payload. Loading is deliberately absent.
type wizardClaims struct {
	Step         string `json:"step"`
	SubmissionID string `json:"sid,omitempty"`
	Error        string `json:"err,omitempty"`
	Status       string `json:"status,omitempty"`
	LastUpdated  string `json:"updated,omitempty"`
	jwt.RegisteredClaims
}

// NewCodec derives an HS256 signing key from secret. An empty secret gets a
// random key, so tokens do not survive a restart.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	ikm := []byte(secret)
	if secret == "" {
		ikm = make([]byte, 32)
		if _, err := rand.Read(ikm); err != nil {
			return nil, fmt.Errorf("session: generate key: %w", err)
		}
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}

	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Codec{key: key, ttl: ttl, now: time.Now}, nil
}

// WithClock overrides the clock used for issuing and validating tokens.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// TTL reports how long issued tokens stay valid.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode signs snap into a token.
func (c *Codec) Encode(snap wizard.Snapshot) (string, error) {
	now := c.now()
	claims := wizardClaims{
		Step:         snap.Step.String(),
		SubmissionID: snap.SubmissionID,
		Error:        snap.Error,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	if snap.Record != nil {
		claims.Status = snap.Record.Status
		claims.LastUpdated = snap.Record.LastUpdatedDate()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return token, nil
}

// Decode verifies token and rebuilds the snapshot it carries.
func (c *Codec) Decode(token string) (wizard.Snapshot, error) {
	var claims wizardClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return wizard.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	step, err := wizard.ParseStep(claims.Step)
	if err != nil {
		return wizard.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	snap := wizard.Snapshot{
		Step:         step,
		SubmissionID: claims.SubmissionID,
		Error:        claims.Error,
	}
	if claims.Status != "" {
		updated, err := time.Parse(application.DateLayout, claims.LastUpdated)
		if err != nil {
			return wizard.Snapshot{}, fmt.Errorf("%w: last updated: %v", ErrInvalidToken, err)
		}
		snap.Record = &application.Record{
			SubmissionID: claims.SubmissionID,
			Status:       claims.Status,
			LastUpdated:  updated,
		}
	}
	return snap, nil
}
