package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/veriscribe/signature-api/internal/api/metrics"
	"github.com/veriscribe/signature-api/internal/core/domain"
	"github.com/veriscribe/signature-api/internal/core/ports"
	"github.com/veriscribe/signature-api/internal/core/token"
)

const (
	// CookieName is the side channel the bearer token travels in.
	CookieName = "token"

	// ClaimsKey is the echo context key the verified claims are stored under.
	ClaimsKey = "session"

	// cookieMaxAge deliberately exceeds the token TTL: the cookie outlives
	// some tokens, which are then rejected on verify rather than at the
	// transport layer.
	cookieMaxAge = 7 * 24 * time.Hour

	loginPath = "/login"
)

// Stable machine-readable failure codes for session checks.
const (
	CodeNoToken        = "NO_TOKEN"
	CodeUserNotFound   = "USER_NOT_FOUND"
	CodeSessionInvalid = "SESSION_INVALID"
	CodeSessionExpired = "SESSION_EXPIRED"
)

var failureMessages = map[string]string{
	CodeNoToken:        "Authentication required. Please log in.",
	CodeUserNotFound:   "User not found. Please log in again.",
	CodeSessionInvalid: "Session invalidated. Please log in again.",
	CodeSessionExpired: "Session expired. Please log in again.",
}

// Session performs bearer validation for every protected operation. All three
// middleware variants share one check — decode the cookie token, look up the
// stored epoch, compare — and differ only in what a failure does to the
// response.
type Session struct {
	codec  *token.Codec
	users  ports.UserRepository
	secure bool
	log    zerolog.Logger
}

func NewSession(codec *token.Codec, users ports.UserRepository, secure bool, log zerolog.Logger) *Session {
	return &Session{codec: codec, users: users, secure: secure, log: log}
}

// check runs the shared validity algorithm. An empty code means success.
func (s *Session) check(c echo.Context) (*token.Claims, string) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, CodeNoToken
	}

	claims, err := s.codec.Decode(cookie.Value)
	if err != nil {
		if err == token.ErrExpired {
			return nil, CodeSessionExpired
		}
		return nil, CodeSessionInvalid
	}

	// Project only the epoch; the session check has no business reading the
	// credential hash or profile.
	epoch, err := s.users.EpochByID(c.Request().Context(), claims.UserID)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, CodeUserNotFound
		}
		s.log.Error().Err(err).Str("user_id", claims.UserID).Msg("epoch lookup failed")
		return nil, CodeSessionInvalid
	}

	if domain.EpochValue(epoch) != domain.EpochValue(claims.Epoch) {
		return nil, CodeSessionInvalid
	}

	return claims, ""
}

// RequireSession guards API endpoints: failures yield a 401 JSON envelope
// with a stable code, and clear the cookie except when there was none.
func (s *Session) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, code := s.check(c)
			if code != "" {
				metrics.SessionRejectionsTotal.WithLabelValues(code).Inc()
				if code != CodeNoToken {
					s.ClearCookie(c)
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": failureMessages[code],
					"code":  code,
				})
			}
			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// RequirePage guards page routes: failures redirect to the login page,
// preserving the originally requested path for post-login return.
func (s *Session) RequirePage() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, code := s.check(c)
			if code != "" {
				metrics.SessionRejectionsTotal.WithLabelValues(code).Inc()
				target := loginPath + "?next=" + url.QueryEscape(c.Request().RequestURI)
				if code != CodeNoToken {
					s.ClearCookie(c)
					target += "&reason=session_expired"
				}
				return c.Redirect(http.StatusFound, target)
			}
			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// Optional attaches the identity when the bearer is valid and falls through
// to anonymous otherwise. A bad cookie is still cleared as a side effect so
// the client stops presenting it.
func (s *Session) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, code := s.check(c)
			switch {
			case code == "":
				c.Set(ClaimsKey, claims)
			case code != CodeNoToken:
				s.ClearCookie(c)
			}
			return next(c)
		}
	}
}

// SetCookie installs a freshly minted token in the side channel.
func (s *Session) SetCookie(c echo.Context, tok string) {
	sameSite := http.SameSiteLaxMode
	if s.secure {
		sameSite = http.SameSiteStrictMode
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: sameSite,
	})
}

// ClearCookie expires the side channel credential.
func (s *Session) ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	})
}
