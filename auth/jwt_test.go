package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	Init("test-secret")

	token, err := GenerateAccessToken(42, 3)
	require.NoError(t, err)

	claims, err := Parse(token, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, Claims{UserID: 42, TokenVersion: 3, Kind: KindAccess}, claims)
}

func TestParse_RejectsWrongKind(t *testing.T) {
	Init("test-secret")

	refresh, err := GenerateRefreshToken(42, 3)
	require.NoError(t, err)

	_, err = Parse(refresh, KindAccess)
	assert.Error(t, err)
	_, err = Parse(refresh, KindRefresh)
	assert.NoError(t, err)
}

func TestVerifyJWT_WrongSecret(t *testing.T) {
	Init("one")
	token, err := GenerateAccessToken(1, 0)
	require.NoError(t, err)

	Init("two")
	_, err = VerifyJWT(token)
	assert.Error(t, err)
}

func TestVerifyJWT_RejectsOtherAlgorithms(t *testing.T) {
	Init("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"user_id": 1, "token_version": 0})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = VerifyJWT(signed)
	assert.Error(t, err)
}

func TestClaimsFrom_MissingClaims(t *testing.T) {
	_, err := claimsFrom(&jwt.Token{Claims: jwt.MapClaims{}})
	assert.Error(t, err)
}
