package http

import (
	"net/http"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
)

type authForm struct {
	Email string
	Token string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.signedIn(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	p := page{Title: "Sign in", Data: authForm{}}
	if r.URL.Query().Get("reset") == "1" {
		p.Notice = "Your password has been reset. Please sign in."
	}
	s.renderPage(w, r, http.StatusOK, "login", p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	form := NewRequestBodyParser(r)
	email := form.Get("email")

	sess, err := s.auth.SignIn(r.Context(), email, form.Get("password"))
	if err != nil {
		s.renderPage(w, r, statusFor(err), "login", page{
			Title: "Sign in",
			Error: core.UserMessage(err),
			Data:  authForm{Email: email},
		})
		return
	}
	s.setSession(w, sess)
	redirect(w, r, "/")
}

func (s *Server) handleSignUpPage(w http.ResponseWriter, r *http.Request) {
	if s.signedIn(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderPage(w, r, http.StatusOK, "signup", page{Title: "Create account", Data: authForm{}})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	form := NewRequestBodyParser(r)
	email := form.Get("email")

	sess, err := s.auth.SignUp(r.Context(), email, form.Get("password"), form.Get("confirm_password"))
	if err != nil {
		if core.Kind(err) == core.ErrInternal {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Sign up failed", log.FieldError, err)
		}
		s.renderPage(w, r, statusFor(err), "signup", page{
			Title: "Create account",
			Error: core.UserMessage(err),
			Data:  authForm{Email: email},
		})
		return
	}
	s.setSession(w, sess)
	redirect(w, r, "/onboarding")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.auth.SignOut(r.Context(), token); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Sign out failed", log.FieldError, err)
		}
	}
	s.clearSession(w)
	redirect(w, r, "/login")
}

func (s *Server) handleForgotPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "forgot", page{Title: "Reset password", Data: authForm{}})
}

// handleForgot answers the same way whether or not the account exists.
func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	form := NewRequestBodyParser(r)
	email := form.Get("email")

	if err := s.auth.RequestPasswordReset(r.Context(), email); err != nil {
		s.renderPage(w, r, statusFor(err), "forgot", page{
			Title: "Reset password",
			Error: core.UserMessage(err),
			Data:  authForm{Email: email},
		})
		return
	}
	s.renderPage(w, r, http.StatusOK, "forgot", page{
		Title:  "Reset password",
		Notice: "If an account exists for that email, a reset link is on its way.",
		Data:   authForm{},
	})
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.renderPage(w, r, http.StatusBadRequest, "reset", page{
			Title: "Choose a new password",
			Error: "This reset link is invalid or has expired",
			Data:  authForm{},
		})
		return
	}
	s.renderPage(w, r, http.StatusOK, "reset", page{Title: "Choose a new password", Data: authForm{Token: token}})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	form := NewRequestBodyParser(r)
	token := form.Get("token")

	if err := s.auth.ResetPassword(r.Context(), token, form.Get("password"), form.Get("confirm_password")); err != nil {
		s.renderPage(w, r, statusFor(err), "reset", page{
			Title: "Choose a new password",
			Error: core.UserMessage(err),
			Data:  authForm{Token: token},
		})
		return
	}
	redirect(w, r, "/login?reset=1")
}

func (s *Server) signedIn(r *http.Request) bool {
	token := sessionToken(r)
	if token == "" {
		return false
	}
	_, err := s.auth.CurrentUser(r.Context(), token)
	return err == nil
}
