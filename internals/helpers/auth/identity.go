// file: internals/helpers/auth/identity.go
package helper

import (
	"strings"

	"schoolfee_backend/internals/helpers/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	LocIdentity = "identity"

	// privilege "both" may read and write; anything else is read-only
	PrivilegeBoth = "both"
	PrivilegeView = "view"

	RoleOwner = "owner" // platform operator, not bound to one institution
)

/* ===============================
   Identity (hydrated by the JWT middleware)
=================================*/

type Identity struct {
	UID           string
	Role          string
	InstitutionID uuid.UUID
	Privilege     string
}

func (i Identity) CanMutate() bool {
	return strings.EqualFold(i.Privilege, PrivilegeBoth)
}

func (i Identity) IsOwner() bool {
	return strings.EqualFold(i.Role, RoleOwner)
}

func SetIdentity(c *fiber.Ctx, id Identity) {
	c.Locals(LocIdentity, id)
}

func GetIdentity(c *fiber.Ctx) (Identity, error) {
	id, ok := c.Locals(LocIdentity).(Identity)
	if !ok || id.UID == "" {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

/* ===============================
   Guards
=================================*/

// ResolveInstitution parses :institution_id and checks it against the token.
func ResolveInstitution(c *fiber.Ctx) (uuid.UUID, Identity, error) {
	who, err := GetIdentity(c)
	if err != nil {
		return uuid.Nil, who, err
	}
	raw := strings.TrimSpace(c.Params("institution_id"))
	instID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, who, fiber.NewError(fiber.StatusBadRequest, "institution_id is not a valid UUID")
	}
	if !who.IsOwner() && who.InstitutionID != instID {
		return uuid.Nil, who, apperr.Forbidden("institution scope mismatch")
	}
	return instID, who, nil
}

// ResolveInstitutionForWrite additionally requires write privilege.
func ResolveInstitutionForWrite(c *fiber.Ctx) (uuid.UUID, Identity, error) {
	instID, who, err := ResolveInstitution(c)
	if err != nil {
		return instID, who, err
	}
	if !who.CanMutate() && !who.IsOwner() {
		return uuid.Nil, who, apperr.Forbidden("write privilege required")
	}
	return instID, who, nil
}

// ParseUUIDParam reads a UUID path parameter.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, name+" is not a valid UUID")
	}
	return id, nil
}

// OwnerOnly guards platform-level routes.
func OwnerOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		who, err := GetIdentity(c)
		if err != nil {
			return err
		}
		if !who.IsOwner() {
			return fiber.NewError(fiber.StatusForbidden, "owner only")
		}
		return c.Next()
	}
}
