package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"taskman/mailer"
	"taskman/store"
	"taskman/token"
	"taskman/utils"
)

const resetCodeTTL = 15 * time.Minute

// Auth serves registration, login, token refresh and the password
// reset flow. Resets and Mail may be nil, in which case the reset
// endpoints report the feature as unavailable.
type Auth struct {
	Users  store.UserStore
	Tokens *token.Service
	Resets store.ResetStore
	Mail   mailer.Sender
}

// Register creates a user. Duplicate emails and missing fields both
// come back as 400, matching the wire contract the frontend expects.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Name, email, password required")
		return
	}

	exists, err := h.Users.EmailInUse(r.Context(), req.Email)
	if err != nil {
		serverError(w, "check email", err)
		return
	}
	if exists {
		writeMessage(w, http.StatusBadRequest, "Email already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		serverError(w, "hash password", err)
		return
	}

	user, err := h.Users.Create(r.Context(), req.Name, req.Email, hash)
	if err != nil {
		// Lost the race against a concurrent registration of the same
		// email; report it the same way as the pre-check.
		if errors.Is(err, store.ErrEmailTaken) {
			writeMessage(w, http.StatusBadRequest, "Email already exists")
			return
		}
		serverError(w, "create user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Registered",
		"userId":  user.ID,
	})
}

// Login verifies credentials and issues a token pair. A missing user
// and a wrong password produce byte-identical responses so the
// endpoint does not leak which emails are registered.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	user, err := h.Users.ByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		serverError(w, "lookup user", err)
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	pair, err := h.Tokens.IssuePair(user.ID)
	if err != nil {
		serverError(w, "issue tokens", err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	access, err := h.Tokens.RefreshAccess(req.RefreshToken)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// Logout exists for wire parity; tokens are stateless so there is
// nothing to invalidate server side. Clients drop their stored pair.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Logged out")
}

// ForgotPassword issues a one-time reset code and mails it. The
// response is the same whether or not the account exists.
func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if h.Resets == nil || h.Mail == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Password reset is not available")
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil || utils.ValidateEmail(req.Email) != nil {
		writeMessage(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	exists, err := h.Users.EmailInUse(r.Context(), req.Email)
	if err != nil {
		serverError(w, "check email", err)
		return
	}

	if exists {
		code, err := utils.GenerateToken(32)
		if err != nil {
			serverError(w, "generate reset code", err)
			return
		}
		if err := h.Resets.SaveCode(r.Context(), req.Email, code, resetCodeTTL); err != nil {
			serverError(w, "save reset code", err)
			return
		}
		if err := h.Mail.SendResetCode(req.Email, code); err != nil {
			// The code is stored; a delivery hiccup should not reveal
			// that the account exists.
			log.Println("Error sending reset code:", err)
		}
	}

	writeMessage(w, http.StatusOK, "If that account exists, a reset code has been sent")
}

// ResetPassword consumes a reset code and sets a new password. Codes
// are single use: a wrong guess burns the code too.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if h.Resets == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Password reset is not available")
		return
	}

	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Code == "" || req.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "Email, code, new password required")
		return
	}

	ok, err := h.Resets.ConsumeCode(r.Context(), req.Email, req.Code)
	if err != nil {
		serverError(w, "consume reset code", err)
		return
	}
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid or expired reset code")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		serverError(w, "hash password", err)
		return
	}
	if err := h.Users.UpdatePassword(r.Context(), req.Email, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusBadRequest, "Invalid or expired reset code")
			return
		}
		serverError(w, "update password", err)
		return
	}

	writeMessage(w, http.StatusOK, "Password updated")
}
