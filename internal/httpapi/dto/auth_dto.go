package dto

// Data Transfer Objects for authentication requests and responses

// RegisterRequest: payload for user registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest: payload for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse: public view of a user; the password hash never appears here
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RegisterResponse: response payload after successful registration
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// LoginResponse: response payload after successful authentication
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"` // "Bearer"
	ExpiresIn int64        `json:"expires_in"` // seconds
	User      UserResponse `json:"user"`
}
