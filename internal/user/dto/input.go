package dto

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fekuna/omnipos-retail-service/internal/model"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLen = 72
)

type RegisterInput struct {
	Username string
	Password string
	Role     model.Role
	// CallerRole is the role of the authenticated caller, empty for anonymous.
	CallerRole model.Role
}

func (in *RegisterInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = model.RoleStaff
	}
}

func (in *RegisterInput) Validate() error {
	if n := utf8.RuneCountInString(in.Username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", model.ErrInvalidInput, minUsernameLen, maxUsernameLen)
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return fmt.Errorf("%w: password must be %d-%d bytes", model.ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, in.Role)
	}
	return nil
}

type LoginInput struct {
	Username string
	Password string
}
