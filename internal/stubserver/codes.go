package stubserver

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const codeTTL = 10 * time.Minute

// CodeSigner mints authorization codes as short-lived signed JWTs, so the
// demo relying party has something self-describing to show.
type CodeSigner struct {
	key    *rsa.PrivateKey
	kid    string
	issuer string
}

func NewCodeSigner(issuer string) (*CodeSigner, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key: %w", err)
	}

	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	sum := sha256.Sum256(spki)

	return &CodeSigner{
		key:    key,
		kid:    base64.RawURLEncoding.EncodeToString(sum[:]),
		issuer: issuer,
	}, nil
}

func (cs *CodeSigner) Sign(clientID, userID, scope, nonce string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": cs.issuer,
		"sub": userID,
		"aud": clientID,
		"iat": now.Unix(),
		"exp": now.Add(codeTTL).Unix(),
		"jti": randCode(16),
	}
	if scope != "" {
		claims["scope"] = scope
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = cs.kid
	return token.SignedString(cs.key)
}

// PublicKey exposes the verification key for tests.
func (cs *CodeSigner) PublicKey() *rsa.PublicKey {
	return &cs.key.PublicKey
}

func randCode(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
