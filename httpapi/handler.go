package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/gin-gonic/gin"
)

// Accounts is the engine surface the handlers need. *goAccount.Engine
// implements it.
type Accounts interface {
	Signup(ctx context.Context, req goAccount.SignupRequest) (goAccount.PublicAccount, error)
	Login(ctx context.Context, email, password string) (goAccount.LoginResult, error)
	BeginFederatedLogin(ctx context.Context, sessionID string, permitSignup bool) (string, error)
	CompleteFederatedLogin(ctx context.Context, sessionID string, params goAccount.CallbackParams) (goAccount.FederatedResult, error)
	FederationStatus() goAccount.FederationStatus
}

// Sessions issues and reads the cookie that ties a federated login's two
// legs together. *session.Manager implements it.
type Sessions interface {
	Read(r *http.Request) (string, bool)
	Ensure(w http.ResponseWriter, r *http.Request) (string, error)
}

type Handler struct {
	Accounts    Accounts
	Sessions    Sessions
	FrontendURL string
	Logger      *slog.Logger
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type callbackUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsNewUser bool   `json:"is_new_user"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": goAccount.MessageInvalidRequest})
		return
	}

	acc, err := h.Accounts.Signup(c.Request.Context(), goAccount.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": goAccount.MessageInvalidRequest})
		return
	}

	res, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    res.Account,
	})
}

// GoogleLogin starts a federated login. allow_signup=true lets the callback
// create an account for an unknown email.
func (h *Handler) GoogleLogin(c *gin.Context) {
	permit := false
	if raw := c.Query("allow_signup"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "allow_signup must be a boolean"})
			return
		}
		permit = v
	}

	sid, err := h.Sessions.Ensure(c.Writer, c.Request)
	if err != nil {
		h.logger().ErrorContext(c.Request.Context(), "session cookie", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": goAccount.MessageInternal})
		return
	}

	target, err := h.Accounts.BeginFederatedLogin(c.Request.Context(), sid, permit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	sid, _ := h.Sessions.Read(c.Request)

	res, err := h.Accounts.CompleteFederatedLogin(c.Request.Context(), sid, goAccount.CallbackParams{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	})
	if err != nil {
		h.logFailure(c, err)
		c.Redirect(http.StatusFound, h.frontend("/auth-error", "error", goAccount.SafeMessage(err)))
		return
	}

	payload, err := json.Marshal(callbackUser{
		ID:        res.Account.ID,
		Name:      res.Account.Name,
		Email:     res.Account.Email,
		IsNewUser: res.IsNewAccount,
	})
	if err != nil {
		c.Redirect(http.StatusFound, h.frontend("/auth-error", "error", goAccount.MessageInternal))
		return
	}
	c.Redirect(http.StatusFound, h.frontend("/auth-success", "user", string(payload)))
}

func (h *Handler) GoogleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Accounts.FederationStatus())
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logFailure(c, err)
	}
	c.JSON(status, gin.H{"detail": goAccount.SafeMessage(err)})
}

func (h *Handler) logFailure(c *gin.Context, err error) {
	h.logger().WarnContext(c.Request.Context(), "request failed",
		slog.String("path", c.FullPath()),
		slog.String("kind", goAccount.KindOf(err).String()),
		slog.String("error", err.Error()),
	)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handler) frontend(path, key, value string) string {
	return strings.TrimRight(h.FrontendURL, "/") + path + "?" + key + "=" + url.QueryEscape(value)
}

func statusFor(err error) int {
	switch goAccount.KindOf(err) {
	case goAccount.KindInvalidRequest, goAccount.KindWeakPassword, goAccount.KindDuplicateAccount:
		return http.StatusBadRequest
	case goAccount.KindAccountNotFound:
		return http.StatusNotFound
	case goAccount.KindInvalidCredential:
		return http.StatusUnauthorized
	case goAccount.KindLoginThrottled:
		return http.StatusTooManyRequests
	case goAccount.KindSignupNotPermitted:
		return http.StatusForbidden
	case goAccount.KindProviderExchange:
		return http.StatusBadGateway
	case goAccount.KindStore:
		return http.StatusServiceUnavailable
	default:
		if errors.Is(err, goAccount.ErrEngineNotReady) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
}
