package dto

import "github.com/fekuna/omnipos-retail-service/internal/model"

type LoginResult struct {
	Token    string     `json:"token"`
	Role     model.Role `json:"role"`
	Username string     `json:"username"`
}
