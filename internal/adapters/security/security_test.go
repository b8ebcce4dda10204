package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r$ecret", hash)
	assert.NoError(t, h.Compare(hash, "Sup3r$ecret"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), domain.ErrInvalidCredentials)
	assert.NotErrorIs(t, h.Compare("not-a-bcrypt-hash", "Sup3r$ecret"), domain.ErrInvalidCredentials)

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBcryptHasherFallsBackToDefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func sampleClaims(now time.Time) ports.AuthClaims {
	return ports.AuthClaims{
		SubjectID:   uuid.New(),
		SubjectKind: domain.SubjectAdmin,
		Email:       "root@example.com",
		Role:        "superadmin",
		SessionID:   uuid.New(),
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}
}

func TestJWTSignerRoundTrip(t *testing.T) {
	signer, err := NewEphemeralJWTSigner("k1", "contestzen")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	in := sampleClaims(now)
	token, err := signer.Sign(in)
	require.NoError(t, err)

	out, err := signer.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, in.SubjectID, out.SubjectID)
	assert.Equal(t, in.SubjectKind, out.SubjectKind)
	assert.Equal(t, in.SessionID, out.SessionID)
	assert.Equal(t, in.Role, out.Role)
	assert.Equal(t, in.ExpiresAt, out.ExpiresAt)
	assert.Equal(t, "k1", out.KeyID)
}

func TestJWTSignerRejects(t *testing.T) {
	signer, err := NewEphemeralJWTSigner("k1", "contestzen")
	require.NoError(t, err)
	other, err := NewEphemeralJWTSigner("k1", "contestzen")
	require.NoError(t, err)
	foreignIssuer, err := NewEphemeralJWTSigner("k1", "someone-else")
	require.NoError(t, err)
	foreignIssuer.privateKey = signer.privateKey
	foreignIssuer.publicKey = signer.publicKey

	now := time.Now().UTC()
	expired := sampleClaims(now.Add(-3 * time.Hour))

	tests := []struct {
		name  string
		token func() string
	}{
		{"other key", func() string { tok, _ := other.Sign(sampleClaims(now)); return tok }},
		{"expired", func() string { tok, _ := signer.Sign(expired); return tok }},
		{"wrong issuer", func() string { tok, _ := foreignIssuer.Sign(sampleClaims(now)); return tok }},
		{"garbage", func() string { return "not.a.jwt" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.ParseAndValidate(tt.token())
			assert.Error(t, err)
		})
	}
}

func TestNewJWTSignerFromPEM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	signer, err := NewJWTSigner("k2", "contestzen", string(privPEM), string(pubPEM))
	require.NoError(t, err)

	jwks, err := signer.PublicJWKs()
	require.NoError(t, err)
	require.Len(t, jwks, 1)
	assert.Equal(t, "k2", jwks[0]["kid"])
	assert.Equal(t, "RS256", jwks[0]["alg"])

	_, err = NewJWTSigner("", "contestzen", string(privPEM), string(pubPEM))
	assert.Error(t, err)
	_, err = NewJWTSigner("k2", "contestzen", "junk", string(pubPEM))
	assert.Error(t, err)
}
