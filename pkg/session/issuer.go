package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload. ExpiresAt is also needed by the denylist.
type Claims struct {
	Session   Session
	ExpiresAt time.Time
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token for the user and returns it with its id.
func (i *TokenIssuer) Issue(userId, orgId uuid.UUID, email string) (string, *Claims, error) {
	jti := uuid.NewString()
	exp := i.now().Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"org_id":  orgId.String(),
		"email":   email,
		"jti":     jti,
		"exp":     exp.Unix(),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, &Claims{
		Session:   Session{UserId: userId, OrganizationId: orgId, Email: email, TokenId: jti},
		ExpiresAt: exp,
	}, nil
}

// Parse verifies signature and expiry. Revocation is checked separately.
func (i *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userId, err := uuid.Parse(stringClaim(claims, "user_id"))
	if err != nil {
		return nil, ErrInvalidToken
	}
	orgId, err := uuid.Parse(stringClaim(claims, "org_id"))
	if err != nil {
		return nil, ErrInvalidToken
	}
	jti := stringClaim(claims, "jti")
	if jti == "" {
		return nil, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Session: Session{
			UserId:         userId,
			OrganizationId: orgId,
			Email:          stringClaim(claims, "email"),
			TokenId:        jti,
		},
		ExpiresAt: exp.Time,
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
