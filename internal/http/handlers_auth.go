package http

import (
	"errors"
	"net/http"

	"budget/internal/auth"
	"budget/internal/core"
	"budget/internal/log"
)

// formField describes one input of a form for clients rendering it.
type formField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Choices  any    `json:"choices,omitempty"`
}

var (
	registerForm = []formField{
		{Name: "username", Type: "text", Required: true},
		{Name: "email", Type: "email"},
		{Name: "password", Type: "password", Required: true},
		{Name: "confirm_password", Type: "password", Required: true},
	}
	loginForm = []formField{
		{Name: "username", Type: "text", Required: true},
		{Name: "password", Type: "password", Required: true},
	}
)

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	NewResponse().With("fields", registerForm).Write(w)
}

// handleRegister creates the account and logs the new user straight in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.accounts.Register(r.Context(), core.Registration{
		Username:        p.Get("username"),
		Email:           p.Get("email"),
		Password:        p.Secret("password"),
		ConfirmPassword: p.Secret("confirm_password"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.startSession(w, user); err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User registered", log.FieldUserID, user.ID)
	NewResponse().
		Status(http.StatusCreated).
		Message("Registration successful!").
		With("user", user).
		Write(w)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	NewResponse().With("fields", loginForm).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.accounts.Authenticate(r.Context(), p.Get("username"), p.Secret("password"))
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).WarnContext(r.Context(),
				"Login failed", log.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		writeError(w, r, err)
		return
	}

	if err := s.startSession(w, user); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message("Logged in.").With("user", user).Write(w)
}

// handleLogout revokes a still-valid session and always clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sess, err := s.sessions.Verify(ctx, auth.TokenFromRequest(r)); err == nil {
		if err := s.sessions.Revoke(ctx, sess); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Failed to revoke session", log.FieldUserID, sess.UserID, log.FieldError, err)
		}
	}
	s.sessions.ClearCookie(w)
	NewResponse().Message("Logged out.").Write(w)
}

func (s *Server) startSession(w http.ResponseWriter, user core.User) error {
	token, sess, err := s.sessions.Issue(user.ID)
	if err != nil {
		return err
	}
	s.sessions.SetCookie(w, token, sess)
	return nil
}
