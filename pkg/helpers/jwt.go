package helpers

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType is the scheme clients present in the Authorization header.
const TokenType = "Bearer"

// DefaultExpiresIn is the fallback token lifetime in seconds used when the
// configured TTL string does not parse. Falling back instead of failing is
// deliberate: a misconfigured TTL must not take login down.
const DefaultExpiresIn = 3600

var expiresInPattern = regexp.MustCompile(`^(\d+)([hms])$`)

// ParseExpiresIn resolves a TTL string of the form "<integer><h|m|s>"
// ("1h", "30m", "45s") to a second count. Anything else yields
// DefaultExpiresIn.
func ParseExpiresIn(s string) int {
	m := expiresInPattern.FindStringSubmatch(s)
	if m == nil {
		return DefaultExpiresIn
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultExpiresIn
	}
	switch m[2] {
	case "h":
		return value * 3600
	case "m":
		return value * 60
	default:
		return value
	}
}

// Claims is the payload embedded in access tokens. Subject carries the user
// id in decimal form.
type Claims struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	jwt.RegisteredClaims
}

// UserID decodes the subject claim.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// JWTManager issues and validates HS256-signed bearer tokens. Tokens are
// stateless: validity is signature plus expiry, there is no revocation list.
// Liveness of the subject is re-checked by the auth middleware per request.
type JWTManager struct {
	secret    []byte
	expiresIn int
}

// NewJWTManager builds a manager from the server secret and a TTL string
// (see ParseExpiresIn).
func NewJWTManager(secret, expiresIn string) *JWTManager {
	return &JWTManager{
		secret:    []byte(secret),
		expiresIn: ParseExpiresIn(expiresIn),
	}
}

// ExpiresIn returns the token lifetime in seconds as advertised to clients.
func (m *JWTManager) ExpiresIn() int { return m.expiresIn }

// Issue signs an access token for the given identity. The claim expiry and
// the advertised expiresIn come from the same resolved TTL.
func (m *JWTManager) Issue(id int64, email, firstName, lastName string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(m.expiresIn) * time.Second)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Parse verifies signature and expiry and returns the embedded claims.
func (m *JWTManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
