package auth

import (
	"errors"
	"time"
)

type LoginDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

type CreateTokenDTO struct {
	Name      string     `json:"name"       binding:"required"`
	ExpiredAt *time.Time `json:"expired_at"`
}

type loginResponse struct {
	Token string `json:"token"`
}

var (
	errAuthUserNotFound  = errors.New("auth user not found")
	errAuthWrongPassword = errors.New("auth wrong password")
	errEmailTaken        = errors.New("email already registered")
)
