package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/scrumkit/scrumkit-api/internal/models"
)

// AnonCookie holds the anonymous session token for participants without an
// account. It is minted on first contact and identifies the browser session
// for item authorship and board ownership checks.
const AnonCookie = "scrumkit_session"

type Claims struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "your-secret-key-change-in-production"
	}
	return []byte(secret)
}

func GenerateToken(userID uuid.UUID, email string) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)), // 7 days
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// ParseToken validates a signed JWT and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, returning "" when the header is absent or malformed.
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return ""
	}
	return tokenString
}

// Protected requires a valid JWT. Used for account-only surfaces: profile,
// notifications, board administration.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// Store user info in context
		c.Locals("userId", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("actorId", claims.UserID.String())

		return c.Next()
	}
}

// Participant identifies the caller without requiring an account. A valid JWT
// wins; otherwise the anonymous session cookie is read, or minted on first
// contact. Boards are joinable by link, so this middleware never rejects.
func Participant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := bearerToken(c); tokenString != "" {
			if claims, err := ParseToken(tokenString); err == nil {
				c.Locals("userId", claims.UserID)
				c.Locals("email", claims.Email)
				c.Locals("actorId", claims.UserID.String())
				return c.Next()
			}
			// Expired token on a link-joinable surface: fall through to the
			// anonymous session rather than bouncing the participant.
		}

		anon := c.Cookies(AnonCookie)
		if !models.IsAnonymousID(anon) {
			anon = models.NewAnonymousID()
			c.Cookie(&fiber.Cookie{
				Name:     AnonCookie,
				Value:    anon,
				Expires:  time.Now().Add(180 * 24 * time.Hour),
				HTTPOnly: true,
				SameSite: "Lax",
			})
		}
		c.Locals("actorId", anon)

		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) uuid.UUID {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// GetActorID returns the caller's identity for ownership and rate limiting:
// the account UUID string, or the anonymous session token.
func GetActorID(c *fiber.Ctx) string {
	actorID, ok := c.Locals("actorId").(string)
	if !ok {
		return ""
	}
	return actorID
}
