package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/supplyconnect/supplyconnect/internal/auth"
)

// TargetTenant returns the tenant a request acts on: the tenant query
// parameter when given, otherwise the principal's own tenant. Global
// administrators have no own tenant and get an empty string.
func TargetTenant(c *fiber.Ctx, p *auth.Principal) string {
	if t := strings.ToUpper(strings.TrimSpace(c.Query("tenant"))); t != "" {
		return t
	}

	if p == nil || p.IsGlobal() {
		return ""
	}

	return p.TenantID
}

// ParamID parses the id route parameter.
func ParamID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidBody
	}

	return id, nil
}
