package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/user/dto"
)

const maxJSONBody = 1 << 20

type registerRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// decodeJSON reads exactly one JSON value into dst and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", model.ErrInvalidInput)
	}
	return nil
}

func (a *App) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	input := &dto.RegisterInput{Username: req.Username, Password: req.Password, Role: req.Role}
	if r.Header.Get("Authorization") != "" {
		caller, ok := a.authenticate(w, r)
		if !ok {
			return
		}
		input.CallerRole = caller.Role
	}

	if _, err := a.Users.Register(r.Context(), input); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusCreated, msgUserCreated)
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	res, err := a.Users.Login(r.Context(), &dto.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

