package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/config"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken      = errors.New("missing session token")
	ErrInvalidToken      = errors.New("invalid session token")
	ErrUnauthorizedParty = errors.New("token issued for an unauthorized party")
)

// Claims are the session token claims the identity provider is configured to
// emit. Email, name and phone come from the session token template.
type Claims struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	AuthorizedParty string `json:"azp"`
	jwt.RegisteredClaims
}

// Verifier checks RS256 session tokens offline against the provider's public key.
type Verifier struct {
	key               *rsa.PublicKey
	issuer            string
	authorizedParties []string
	leeway            time.Duration
}

// NewVerifier reads the PEM public key inline or from PublicKeyFile.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	pemData := []byte(cfg.PublicKey)
	if strings.TrimSpace(cfg.PublicKey) == "" {
		data, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read auth public key file: %w", err)
		}
		pemData = data
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(pemData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse auth public key: %w", err)
	}

	return &Verifier{
		key:               key,
		issuer:            cfg.Issuer,
		authorizedParties: cfg.AuthorizedParties,
		leeway:            time.Duration(cfg.LeewaySeconds) * time.Second,
	}, nil
}

func (v *Verifier) Verify(token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if len(v.authorizedParties) > 0 && claims.AuthorizedParty != "" &&
		!slices.Contains(v.authorizedParties, claims.AuthorizedParty) {
		return nil, ErrUnauthorizedParty
	}

	return &models.Identity{
		AuthID: claims.Subject,
		Email:  strings.ToLower(strings.TrimSpace(claims.Email)),
		Name:   strings.TrimSpace(claims.Name),
		Phone:  strings.TrimSpace(claims.Phone),
	}, nil
}
