package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"

	"budget/internal/auth"
	"budget/internal/core"
	"budget/internal/log"
)

type userContextKey struct{}

type principal struct {
	user    core.User
	session auth.Session
}

// currentUser is only valid inside requireUser.
func currentUser(r *http.Request) core.User {
	p, _ := r.Context().Value(userContextKey{}).(principal)
	return p.user
}

// recoverer turns a panic into a 500 so one bad request cannot take the
// process down.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panicked",
					"panic", rec,
					"stack", string(debug.Stack()))
				InternalServerError().Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireUser resolves the session to an active user. Any failure answers
// 401 and clears a stale cookie.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sess, err := s.sessions.Verify(ctx, auth.TokenFromRequest(r))
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidSession) {
				writeError(w, r, err)
				return
			}
			s.sessions.ClearCookie(w)
			writeError(w, r, auth.ErrInvalidSession)
			return
		}

		user, err := s.accounts.User(ctx, sess.UserID)
		if errors.Is(err, core.ErrNotFound) || (err == nil && !user.IsActive) {
			s.sessions.ClearCookie(w)
			writeError(w, r, auth.ErrInvalidSession)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		logger := log.FromContext(ctx).With(log.FieldUserID, user.ID)
		ctx = log.WithContext(ctx, logger)
		ctx = context.WithValue(ctx, userContextKey{}, principal{user: user, session: sess})
		next(w, r.WithContext(ctx))
	}
}

// requireSuperuser is requireUser plus the administration capability check.
func (s *Server) requireSuperuser(next http.HandlerFunc) http.HandlerFunc {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request) {
		if err := core.RequireSuperuser(currentUser(r)); err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r)
	})
}
