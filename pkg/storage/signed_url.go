package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signed URL failures.
var (
	ErrTokenMalformed = errors.New("invalid token format")
	ErrTokenSignature = errors.New("invalid token signature")
	ErrTokenExpired   = errors.New("token expired")
)

// SignedObject is the payload carried by a download token.
type SignedObject struct {
	OwnerID   string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates signed download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (s *SignedURLSigner) WithClock(now func() time.Time) *SignedURLSigner {
	if now != nil {
		s.now = now
	}
	return s
}

// Generate returns a signed token referencing the owner and stored object path.
func (s *SignedURLSigner) Generate(ownerID, relPath string) (string, time.Time, error) {
	if ownerID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("owner id and path required")
	}
	if strings.Contains(ownerID, ".") {
		return "", time.Time{}, fmt.Errorf("owner id must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(ownerID, ts, encodedPath)
	return strings.Join([]string{ownerID, ts, encodedPath, signature}, "."), expiresAt, nil
}

// Parse validates a token and returns the embedded object reference.
func (s *SignedURLSigner) Parse(token string) (*SignedObject, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrTokenMalformed
	}
	ownerID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(ownerID, ts, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrTokenSignature
	}

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	obj := &SignedObject{OwnerID: ownerID, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(obj.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return obj, nil
}

func (s *SignedURLSigner) sign(ownerID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(ownerID + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
