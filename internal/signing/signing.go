// Package signing implements the keyed code-signing scheme behind public
// verification: HMAC-SHA256 over the code, appended after a dot separator.
package signing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Separator joins a code and its signature in the public token. Codes are
// issued without dots, but verification still splits on the last separator.
const Separator = "."

// Service signs and verifies virtual codes. The previous secret, when set,
// is accepted during a rotation grace period; no older generation is.
type Service struct {
	secret         []byte
	previousSecret []byte
}

func NewService(secret, previousSecret string) *Service {
	s := &Service{secret: []byte(secret)}
	if previousSecret != "" {
		s.previousSecret = []byte(previousSecret)
	}
	return s
}

// Sign computes the hex HMAC-SHA256 of payload under the current secret.
func (s *Service) Sign(payload string) string {
	return computeHmac(payload, s.secret)
}

// Verify recomputes the signature and compares in constant time. It never
// panics on malformed input; any mismatch, including a wrong-length
// signature, reports false.
func (s *Service) Verify(payload, signature string) bool {
	return verifyWith(payload, signature, s.secret)
}

// VerifyWithRotation tries the current secret, then the previous one.
func (s *Service) VerifyWithRotation(payload, signature string) bool {
	if verifyWith(payload, signature, s.secret) {
		return true
	}
	if s.previousSecret != nil {
		return verifyWith(payload, signature, s.previousSecret)
	}
	return false
}

// SignCode produces the public-facing verifiable token "code.signature".
func (s *Service) SignCode(code string) string {
	return code + Separator + s.Sign(code)
}

// VerifySignedCode splits the token on the last separator and verifies the
// trailing signature. Malformed input fails closed.
func (s *Service) VerifySignedCode(token string) (valid bool, code string) {
	idx := strings.LastIndex(token, Separator)
	if idx < 0 {
		return false, ""
	}
	code = token[:idx]
	signature := token[idx+1:]
	return s.VerifyWithRotation(code, signature), code
}

// NewSecret generates a fresh random secret of n bytes, hex encoded. Used
// when rotating keys.
func NewSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func computeHmac(payload string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyWith(payload, signature string, key []byte) bool {
	expected := computeHmac(payload, key)
	return hmac.Equal([]byte(expected), []byte(signature))
}
