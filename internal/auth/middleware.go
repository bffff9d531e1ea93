package auth

import (
	"fmt"
	"strings"

	"lokanta-backend/internal/config"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxTenantIDKey = "tenant_id"
	CtxBranchIDKey = "branch_id"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("geçersiz imzalama yöntemi")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Token çözümlenemedi")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxTenantIDKey, claims.TenantID)
		c.Locals(CtxBranchIDKey, claims.BranchID)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	}
}

// ResolveTenantID: Siparişi atan kullanıcının tenant kapsamını belirler.
// super_admin gövdeden/parametreden tenant seçebilir, diğer roller kendi
// token'ındaki tenant'a kilitlidir.
func ResolveTenantID(c *fiber.Ctx, requested *uint) (uint, error) {
	roleVal := c.Locals(CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role == models.RoleSuperAdmin {
		if requested == nil || *requested == 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, "super_admin için tenant_id zorunlu")
		}
		return *requested, nil
	}

	tVal := c.Locals(CtxTenantIDKey)
	tPtr, ok := tVal.(*uint)
	if !ok || tPtr == nil {
		return 0, fiber.NewError(fiber.StatusForbidden, "Tenant bilgisi alınamadı")
	}
	if requested != nil && *requested != 0 && *requested != *tPtr {
		return 0, fiber.NewError(fiber.StatusForbidden, "Başka bir tenant adına işlem yapılamaz")
	}
	return *tPtr, nil
}

// CurrentUserID: Token'dan kullanıcı id'sini okur.
func CurrentUserID(c *fiber.Ctx) (uint, error) {
	v := c.Locals(CtxUserIDKey)
	id, ok := v.(uint)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}
	return id, nil
}
