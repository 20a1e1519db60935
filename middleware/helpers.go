package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-live/models"
	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimUserID = "user_id"
	jwtClaimUnitID = "unit_id"
	jwtClaimRole   = "role"
)

func claimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return nil, errors.New("user claims not found in context")
	}
	return claims, nil
}

// intClaim достаёт числовой claim. JSON-декодер отдаёт числа как float64.
func intClaim(claims jwt.MapClaims, name string) (int, error) {
	raw, ok := claims[name]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", name)
	}
	value, ok := raw.(float64)
	if !ok || value != float64(int(value)) {
		return 0, fmt.Errorf("invalid '%s' claim: expected integer, got %v", name, raw)
	}
	id := int(value)
	if id <= 0 {
		return 0, fmt.Errorf("invalid '%s' claim value: %d", name, id)
	}
	return id, nil
}

func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return intClaim(claims, jwtClaimUserID)
}

// GetUnitIDFromContext возвращает юнит, от имени которого действует игрок.
// Claim опционален: у организаторов и админов его нет.
func GetUnitIDFromContext(ctx context.Context) (int, bool) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return 0, false
	}
	id, err := intClaim(claims, jwtClaimUnitID)
	if err != nil {
		return 0, false
	}
	return id, true
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	raw, ok := claims[jwtClaimRole]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	roleStr, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, raw)
	}

	role := models.UserRole(roleStr)
	switch role {
	case models.RoleAdmin, models.RoleOrganizer, models.RolePlayer:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
}
