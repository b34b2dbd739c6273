package auth

import (
	"testing"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/config"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *Issuer {
	return NewIssuer(config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "test"})
}

func TestIssueAndVerify(t *testing.T) {
	riderID := "RDR123"
	email := "r@example.com"
	user := &models.User{Phone: "9999999999", Name: "Ravi", Role: models.RoleRider, RiderID: &riderID, Email: &email}

	iss := testIssuer()
	token, err := iss.Issue(user)
	require.NoError(t, err)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "9999999999", claims.Phone)
	assert.Equal(t, "Ravi", claims.Name)
	assert.Equal(t, models.RoleRider, claims.Role)
	assert.Equal(t, "RDR123", claims.RiderID)
	assert.Equal(t, "r@example.com", claims.Email)
	assert.Equal(t, "test", claims.Issuer)
}

func TestVerify_Expired(t *testing.T) {
	iss := testIssuer()
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := iss.Issue(&models.User{Phone: "9999999999", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = testIssuer().Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_WrongSecretOrGarbage(t *testing.T) {
	token, err := testIssuer().Issue(&models.User{Phone: "9999999999", Role: models.RoleUser})
	require.NoError(t, err)

	other := NewIssuer(config.JWTConfig{Secret: "other", Expiry: time.Hour})
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = testIssuer().Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{Phone: "9999999999", Role: models.RoleUser}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testIssuer().Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
