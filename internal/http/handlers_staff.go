package http

import (
	"fmt"
	"net/http"

	"budget/internal/core"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.accounts.ListUsers(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().With("users", users).Write(w)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.accounts.GetUser(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().With("user", u).Write(w)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := s.accounts.UpdateUser(r.Context(), currentUser(r), id, core.UserUpdate{
		Username: p.Get("username"),
		Email:    p.Get("email"),
		IsActive: p.Bool("is_active"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message(fmt.Sprintf("User %s updated.", u.Username)).With("user", u).Write(w)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.accounts.DeleteUser(r.Context(), currentUser(r), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message("User deleted.").With("id", id).Write(w)
}
