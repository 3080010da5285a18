package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

var secret []byte

// Init sets the HMAC secret used to sign and verify tokens.
func Init(jwtSecret string) {
	secret = []byte(jwtSecret)
}

func GenerateAccessToken(userID uint64, tokenVersion uint64) (string, error) {
	return generate(userID, tokenVersion, KindAccess, accessTokenTTL)
}

func GenerateRefreshToken(userID uint64, tokenVersion uint64) (string, error) {
	return generate(userID, tokenVersion, KindRefresh, refreshTokenTTL)
}

func generate(userID, tokenVersion uint64, kind Kind, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret not initialized")
	}
	claims := jwt.MapClaims{
		"user_id":       userID,
		"token_version": tokenVersion,
		"kind":          string(kind),
		"exp":           time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	jwtToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if !jwtToken.Valid {
		return nil, errors.New("token invalid")
	}

	return jwtToken, nil
}

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is what a token says about its holder.
type Claims struct {
	UserID       uint64
	TokenVersion uint64
	Kind         Kind
}

// Parse verifies tokenString and requires it to be of the given kind, so a
// refresh token is never accepted where an access token is expected.
func Parse(tokenString string, kind Kind) (Claims, error) {
	token, err := VerifyJWT(tokenString)
	if err != nil {
		return Claims{}, err
	}
	claims, err := claimsFrom(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.Kind != kind {
		return Claims{}, fmt.Errorf("expected %s token, got %q", kind, claims.Kind)
	}
	return claims, nil
}

func claimsFrom(token *jwt.Token) (Claims, error) {
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("unexpected claims type")
	}
	// numbers decode as float64 from the JSON payload
	userID, ok := mc["user_id"].(float64)
	if !ok {
		return Claims{}, errors.New("user_id claim missing")
	}
	version, ok := mc["token_version"].(float64)
	if !ok {
		return Claims{}, errors.New("token_version claim missing")
	}
	kind, _ := mc["kind"].(string)
	return Claims{UserID: uint64(userID), TokenVersion: uint64(version), Kind: Kind(kind)}, nil
}
