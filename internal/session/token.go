package session

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

// Claims are the App Bridge session token claims the service reads.
type Claims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// Verifier validates App Bridge session tokens: HS256 signed with the app secret,
// audience equal to the app API key, dest carrying the shop.
type Verifier struct {
	apiKey string
	secret []byte
	leeway time.Duration
}

// NewVerifier creates a new session token verifier
func NewVerifier(apiKey, apiSecret string) *Verifier {
	return &Verifier{
		apiKey: apiKey,
		secret: []byte(apiSecret),
		leeway: 5 * time.Second,
	}
}

// Verify checks the token and returns the shop it was issued for.
func (v *Verifier) Verify(raw string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("%w: app secret", domain.ErrConfigMissing)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.apiKey != "" {
		opts = append(opts, jwt.WithAudience(v.apiKey))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	shop, err := ShopFromDest(claims.Dest)
	if err != nil {
		return "", err
	}
	return shop, nil
}

// ShopFromDest extracts the shop host from a dest claim such as https://demo.myshopify.com.
func ShopFromDest(dest string) (string, error) {
	u, err := url.Parse(dest)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: invalid dest claim %q", domain.ErrUnauthorized, dest)
	}
	shop := strings.ToLower(u.Host)
	if !ValidShopDomain(shop) {
		return "", fmt.Errorf("%w: invalid shop %q", domain.ErrUnauthorized, shop)
	}
	return shop, nil
}

// ValidShopDomain reports whether s looks like <name>.myshopify.com.
func ValidShopDomain(s string) bool {
	name, ok := strings.CutSuffix(s, ".myshopify.com")
	if !ok || name == "" {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

// Sign issues a session token for shop. Used by tests and the register-shop tool.
func Sign(apiKey, apiSecret, shop string, ttl time.Duration) (string, error) {
	if shop == "" {
		return "", errors.New("shop is required")
	}
	now := time.Now()
	claims := Claims{
		Dest: "https://" + shop,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shop + "/admin",
			Audience:  jwt.ClaimStrings{apiKey},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
}
