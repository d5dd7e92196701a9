package requestresponse

import (
	"factory-server/internal/model"
	"time"
)

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Username string `json:"username" example:"worker42"`
	Email    string `json:"email" example:"worker42@factory.local"`
	FullName string `json:"full_name" example:"Иван Петров"`
	Password string `json:"password" example:"P@ssw0rd1"`
}

// UpdateRoleRequest : смена роли пользователя
type UpdateRoleRequest struct {
	Role string `json:"role" example:"master"`
}

// ErrorDetail : детальная информация об ошибке
type ErrorDetail struct {
	Code int    `json:"code" example:"400"`
	Text string `json:"text" example:"неверный логин или пароль"`
}

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// UserResponse : данные пользователя без секретов
type UserResponse struct {
	ID        string    `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Username  string    `json:"username" example:"master1"`
	Email     string    `json:"email" example:"master1@factory.local"`
	FullName  string    `json:"full_name" example:"Анна Смирнова"`
	Role      string    `json:"role" example:"master"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserResponse(user *model.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
