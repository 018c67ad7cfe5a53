package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

const (
	issuer           = "consultation_scheduler"
	contextCallerKey = "caller"
)

var (
	errMissingToken = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")
	errInvalidToken = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errNoCaller     = errors.New("caller not found in echo.Context")
)

// Claims represents the identity transmitted via a JWT.
// The engine trusts them as given.
type Claims struct {
	jwt.RegisteredClaims
	Role     model.Role `json:"role"`
	Approved bool       `json:"approved"`
}

// IssueToken signs an HS256 token for the caller
func IssueToken(secret []byte, caller model.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(caller.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:     caller.Role,
		Approved: caller.Approved,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(secret []byte, raw string) (model.Caller, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return model.Caller{}, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return model.Caller{}, errors.New("subject is not a user id")
	}
	if !claims.Role.Valid() {
		return model.Caller{}, errors.New("unknown role")
	}

	return model.Caller{ID: id, Role: claims.Role, Approved: claims.Approved}, nil
}

func authMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return errMissingToken
			}

			caller, err := parseToken(secret, raw)
			if err != nil {
				return errInvalidToken.WithInternal(err)
			}

			c.Set(contextCallerKey, caller)
			return next(c)
		}
	}
}

func callerFrom(c echo.Context) (model.Caller, error) {
	caller, ok := c.Get(contextCallerKey).(model.Caller)
	if !ok {
		return model.Caller{}, errNoCaller
	}
	return caller, nil
}

// selfOrAdmin пропускает только владельца ресурса :id или админа
func selfOrAdmin(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, err := callerFrom(c)
			if err != nil {
				return err
			}
			id, err := pathID(c, "id")
			if err != nil {
				return err
			}
			if caller.ID != id && !caller.IsAdmin() {
				logger.Warn("Forbidden view access",
					zap.Int64("caller_id", caller.ID),
					zap.Int64("target_id", id),
					zap.String("path", c.Path()),
				)
				return errForbidden
			}
			return next(c)
		}
	}
}
