package security

import (
	"factory-server/internal/model"
	"fmt"
)

// RequireRole : пропускает пользователя, если его роль входит в список
func RequireRole(user *model.User, roles ...model.Role) (*model.User, error) {
	if user == nil {
		return nil, model.ErrUnauthenticated
	}
	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, fmt.Errorf("%w: роль %s", model.ErrForbidden, user.Role)
}
