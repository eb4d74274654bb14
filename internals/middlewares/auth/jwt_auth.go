package middleware

import (
	"strings"

	helper "schoolfee_backend/internals/helpers"
	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool // read the access_token cookie when there is no Bearer header
}

// AuthJWT verifies an HMAC-signed token and stores the caller's Identity in locals.
// Expected claims: uid (or sub), role, institution_id, privilege.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid token claims")
		}

		id := helperAuth.Identity{
			UID:       firstNonEmpty(strClaim(claims, "uid"), strClaim(claims, "sub")),
			Role:      strings.ToLower(strClaim(claims, "role")),
			Privilege: strings.ToLower(strClaim(claims, "privilege")),
		}
		if id.UID == "" {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Token has no subject")
		}
		if s := strClaim(claims, "institution_id"); s != "" {
			instID, err := uuid.Parse(s)
			if err != nil {
				return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid institution_id claim")
			}
			id.InstitutionID = instID
		} else if !id.IsOwner() {
			return helper.JsonError(c, fiber.StatusForbidden, "Token is not bound to an institution")
		}

		helperAuth.SetIdentity(c, id)
		c.Locals("jwt_claims", claims)
		return c.Next()
	}
}

func strClaim(m jwt.MapClaims, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
