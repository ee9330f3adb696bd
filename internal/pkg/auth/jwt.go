package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yigit/alumnisphere/internal/app/models"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
	ErrInvalidFormat = errors.New("invalid token format")
)

// JWTConfig holds the signing secret and token lifetimes
type JWTConfig struct {
	SecretKey       string
	AccessTokenExp  time.Duration
	RefreshTokenExp time.Duration
	TokenIssuer     string
}

// JWTService signs and verifies HS256 access tokens and mints opaque refresh tokens
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config, now: time.Now}
}

// Claims is the access token payload
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is a freshly issued access token plus the refresh token that can
// replace it. The refresh token is a random UUID; only its stored row gives it meaning.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// ExpiresIn is the access token lifetime in seconds
func (p TokenPair) ExpiresIn(now time.Time) int64 {
	return int64(p.AccessExpiresAt.Sub(now).Round(time.Second).Seconds())
}

// RefreshExpiresIn is the refresh token lifetime in seconds
func (p TokenPair) RefreshExpiresIn(now time.Time) int64 {
	return int64(p.RefreshExpiresAt.Sub(now).Round(time.Second).Seconds())
}

// Now is the clock used for token timestamps
func (s *JWTService) Now() time.Time {
	return s.now()
}

// GenerateTokenPair signs an access token for user and mints a refresh token
func (s *JWTService) GenerateTokenPair(user *models.User) (TokenPair, error) {
	issuedAt := s.now()
	pair := TokenPair{
		AccessExpiresAt:  issuedAt.Add(s.config.AccessTokenExp),
		RefreshExpiresAt: issuedAt.Add(s.config.RefreshTokenExp),
		RefreshToken:     uuid.NewString(),
	}

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(pair.AccessExpiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Issuer:    s.config.TokenIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	pair.AccessToken = signed
	return pair, nil
}

// ValidateToken verifies the signature and expiry of an access token
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SecretKey), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAndExtractClaims validates tokenString and rejects claims that do
// not name a real user and role.
func (s *JWTService) ValidateAndExtractClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 || claims.Email == "" || !models.RoleType(claims.Role).IsValid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearerToken strips an optional "Bearer " prefix from an Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	token := strings.TrimSpace(authHeader)
	if rest, ok := strings.CutPrefix(token, "Bearer"); ok && (rest == "" || rest[0] == ' ') {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return "", ErrInvalidFormat
	}
	return token, nil
}
