package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier issues and checks email-verification tokens. Tokens are signed
// with the session secret and expire after two days.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

var ErrInvalidToken = errors.New("invalid verification token")

type verificationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (v *Verifier) IssueToken(user *User) (string, error) {
	now := time.Now().UTC()
	claims := verificationClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(48 * time.Hour)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(v.secret)
}

// ParseToken returns the user id and email a valid token was issued for.
func (v *Verifier) ParseToken(tokenStr string) (int64, string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &verificationClaims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return 0, "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*verificationClaims)
	if !ok || !token.Valid {
		return 0, "", ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}
	return id, claims.Email, nil
}
