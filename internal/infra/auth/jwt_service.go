package auth

import (
	"time"

	"chatty/config"
	"chatty/internal/domain/entity"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultSessionTTL = 7 * 24 * time.Hour

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret []byte        // Secret key for signing session tokens.
	ttl    time.Duration // Time-to-live for session tokens.
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Session == "" {
		return nil, errors.New("jwt session secret must be provided")
	}

	ttl := defaultSessionTTL
	if cfg.Auth != nil && cfg.Auth.SessionTTL > 0 {
		ttl = cfg.Auth.SessionTTL
	}

	return &jwtService{
		secret: []byte(cfg.SecretKey.Session),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a session token embedding the user identity.
func (s *jwtService) Issue(userID uuid.UUID) (*entity.Session, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":  userID.String(),  // Subject (who the token is for)
		"iat":  issuedAt.Unix(),  // Issued At
		"exp":  expiresAt.Unix(), // Expiration Time
		"type": service.SessionTokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "sign session token")
	}

	return &entity.Session{
		UserID:    userID,
		Token:     signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate parses the token, checking the HMAC signature and expiry.
func (s *jwtService) Validate(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrUnauthenticated, err.Error())
	}
	if !token.Valid {
		return nil, errors.Wrap(domainerrors.ErrUnauthenticated, "token is not valid")
	}

	if claims.Type != service.SessionTokenType {
		return nil, errors.Wrapf(domainerrors.ErrUnauthenticated, "unexpected token type %q", claims.Type)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrUnauthenticated, "invalid subject")
	}
	claims.UserID = userID

	return claims, nil
}

// SessionTTL returns the configured validity window for session tokens.
func (s *jwtService) SessionTTL() time.Duration {
	return s.ttl
}
