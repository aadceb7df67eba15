// Package dto defines data transfer objects for the auth feature's HTTP transport layer.
package dto

// RegisterReq represents the request body for the /auth/register/email endpoint.
// It uses Gin's binding tags for validation (required, email format, password length).
type RegisterReq struct {
	Name     string `json:"name" binding:"required,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}
