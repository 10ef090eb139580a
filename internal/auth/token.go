package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the validity of an issued bearer token.
const TokenTTL = 24 * time.Hour

// Claims is the bearer token payload.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for userID that expires after TokenTTL.
func (m *TokenManager) Issue(userID uint) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, errors.New("no config found for JWT")
	}
	issuedAt := m.now()
	expiration := issuedAt.Add(TokenTTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiration, nil
}

// Parse verifies signature, algorithm and expiry.
func (m *TokenManager) Parse(tokenStr string) (uint, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || claims.UserID == 0 {
		return 0, ErrUnauthenticated
	}
	return claims.UserID, nil
}

// Resolve reads "Authorization: Bearer <token>". A bare token without the
// scheme is accepted too.
func (m *TokenManager) Resolve(r *http.Request) (uint, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return 0, ErrUnauthenticated
	}
	tokenStr := header
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		tokenStr = strings.TrimSpace(rest)
	}
	return m.Parse(tokenStr)
}
