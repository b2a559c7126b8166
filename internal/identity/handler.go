package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-auth/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
)

// Handler serves the password sign-up / sign-in endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.signUp)
	r.Post("/signin", h.signIn)
	r.With(h.withSession).Post("/signout", h.signOut)
}

// withSession loads the caller's session once and stashes it in the request
// context for handlers that operate on it.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.service.Sessions().Load(r.Context(), r)
		if err != nil {
			h.logger.Error("load session", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
	})
}

type signUpRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.SignUp(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httpx.RespondError(w, httpx.ErrDuplicate)
			return
		}
		h.logger.Warn("sign up rejected", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	h.logger.Info("user signed up", slog.Int64("user_id", user.ID))
	h.startSession(w, r, user)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	h.logger.Info("user signed in", slog.Int64("user_id", user.ID))
	h.startSession(w, r, user)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	sm := h.service.Sessions()
	if sess := shared.SessionFromContext(r.Context()); sess != nil && !sess.IsNew() {
		sm.Destroy(sess)
		if err := sm.Commit(r.Context(), w, r, sess); err != nil {
			h.logger.Error("destroy session", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *User) {
	sm := h.service.Sessions()
	sess, err := sm.Mint(r.Context(), strconv.FormatInt(user.ID, 10))
	if err != nil {
		h.logger.Error("mint session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	http.SetCookie(w, sm.Cookie(sess))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user": Principal{ID: user.ID, Email: user.Email, Name: user.Name, GlobalRole: user.GlobalRole},
	})
}
