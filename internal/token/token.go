package token

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jsiebens/memberd/internal/util"
)

// Identity is the verified subject of a session token.
type Identity struct {
	MemberID uint64
	Email    string
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens binding a member id and email.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required, generate one with 'memberd genkey'")
	}

	key, err := hex.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("error reading session secret: %v", err)
	}

	return &Issuer{
		secret: key,
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

func (i *Issuer) Sign(memberID uint64, email string) (string, error) {
	now := time.Now()

	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fmt.Sprintf("%d", util.NextID()),
			Issuer:    i.issuer,
			Subject:   strconv.FormatUint(memberID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) Verify(raw string) (*Identity, error) {
	claims := &sessionClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if i.issuer != "" && claims.Issuer != i.issuer {
		return nil, errors.New("token has an unknown issuer")
	}

	memberID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("token has an invalid subject: %v", err)
	}

	return &Identity{
		MemberID: memberID,
		Email:    claims.Email,
	}, nil
}
