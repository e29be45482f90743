package http

import (
	"net/http"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
)

type settingsPage struct {
	User core.User
}

func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	user, err := s.budget.Profile(r.Context(), currentIdentity(r).ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "settings", page{Title: "Settings", Active: "settings", Data: settingsPage{User: user}})
}

func (s *Server) handleUpdateCurrency(w http.ResponseWriter, r *http.Request) {
	form := NewRequestBodyParser(r)
	if err := s.budget.UpdateCurrency(r.Context(), currentIdentity(r).ID, form.Get("currency")); err != nil {
		s.respondError(w, r, err)
		return
	}
	NewHTMXResponse().
		TriggerSuccessNotification("Currency updated").
		TriggerBudgetChanged("").
		BodyHTML(`<div class="success" role="status">Currency updated</div>`).
		Write(w)
}

// handleUpdatePassword changes the password, which revokes every session, then
// signs the user back in with the new password.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	id := currentIdentity(r)
	form := NewRequestBodyParser(r)
	password := form.Get("password")

	if err := s.auth.UpdatePassword(r.Context(), id.ID, password, form.Get("confirm_password")); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, err := s.auth.SignIn(r.Context(), id.Email, password)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Re-authentication after password change failed",
			log.FieldComponent, log.ComponentAuth,
			log.FieldError, err)
		s.clearSession(w)
		redirect(w, r, "/login")
		return
	}
	s.setSession(w, sess)
	NewHTMXResponse().
		TriggerSuccessNotification("Password updated").
		TriggerFormReset().
		BodyHTML(`<div class="success" role="status">Password updated</div>`).
		Write(w)
}
