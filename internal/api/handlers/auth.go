package handlers

import (
	"net/http"
	"time"

	"github.com/rohits-web03/docvault/internal/api/services"
	"github.com/rohits-web03/docvault/internal/auth"
	"github.com/rohits-web03/docvault/internal/utils"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth          *services.AuthService
	secureCookies bool
	logger        *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:          authService,
		secureCookies: secureCookies,
		logger:        logger.With(zap.String("handler", "auth")),
	}
}

type credentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

// Register godoc
// @Summary Create an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentialsInput true "Username and password"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 409 {object} utils.Payload "Username is already taken"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), input.Username, input.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSONSuccess(w, http.StatusCreated, "User registered successfully", toUserResponse(user))
}

// Login godoc
// @Summary Log in
// @Description Opens a cookie session by default. With mode=token a bearer token is returned instead.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentialsInput true "Username and password"
// @Param mode query string false "session or token" Enums(session, token)
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 401 {object} utils.Payload "Invalid credentials"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var mode services.LoginMode
	switch r.URL.Query().Get("mode") {
	case "", "session":
		mode = services.LoginSession
	case "token":
		mode = services.LoginToken
	default:
		utils.JSONError(w, http.StatusBadRequest, "Invalid login mode")
		return
	}

	var input credentialsInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), input.Username, input.Password, mode)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if mode == services.LoginToken {
		utils.JSONResponse(w, http.StatusOK, utils.Payload{
			Success: true,
			Message: "Login successful",
			Data: tokenResponse{
				Token:     result.Token,
				ExpiresAt: result.ExpiresAt,
				User:      toUserResponse(result.User),
			},
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    result.SessionID,
		Path:     "/",
		MaxAge:   int(time.Until(result.ExpiresAt).Seconds()),
		Secure:   h.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	utils.JSONSuccess(w, http.StatusOK, "Login successful", toUserResponse(result.User))
}

// Logout godoc
// @Summary Log out
// @Description Ends the cookie session and expires the cookie, even when the session is already gone. Bearer tokens stay valid until they expire.
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.SessionCookieName); err == nil {
		h.auth.Logout(c.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	utils.JSONSuccess(w, http.StatusOK, "Logged out successfully", nil)
}
