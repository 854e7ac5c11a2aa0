package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/auth"
	"github.com/justsurfingit/pipeline-crm/internal/dtos"
	"github.com/justsurfingit/pipeline-crm/internal/middleware"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/justsurfingit/pipeline-crm/internal/services"
	"go.uber.org/zap"
)

const (
	userUpsertTimeout = 5 * time.Second
	maxImportSize     = 10 << 20
)

// UserStore is the part of the user repository the auth endpoints need.
type UserStore interface {
	Ensure(ctx context.Context, id, email string) error
	Get(ctx context.Context, id string) (*models.User, error)
}

type AuthHandler struct {
	base
	Verifier     *auth.Verifier
	Users        UserStore
	CookieName   string
	CookieSecure bool
}

func NewAuthHandler(verifier *auth.Verifier, users UserStore, cookieName string, cookieSecure bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		base:         base{Log: log},
		Verifier:     verifier,
		Users:        users,
		CookieName:   cookieName,
		CookieSecure: cookieSecure,
	}
}

// Session stores a verified access token in an httpOnly cookie and records the user.
func (h *AuthHandler) Session(c *gin.Context) {
	var req dtos.SessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	id, err := h.Verifier.Verify(req.AccessToken)
	if err != nil {
		h.respondError(c, apperrors.Unauthorized("invalid access token").Wrap(err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.CookieName, req.AccessToken, 0, "/", "", h.CookieSecure, true)
	h.ensureUser(id)

	c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "email": id.Email})
}

// ensureUser upserts the user row in the background. A failure is only logged.
func (h *AuthHandler) ensureUser(id *auth.Identity) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), userUpsertTimeout)
		defer cancel()
		if err := h.Users.Ensure(ctx, id.UserID, id.Email); err != nil {
			h.Log.Warn("user upsert failed", zap.String("user_id", id.UserID), zap.Error(err))
		}
	}()
}

// SignOut clears the session cookie. It succeeds whether or not a session existed.
func (h *AuthHandler) SignOut(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.CookieName, "", -1, "/", "", h.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Me(c *gin.Context) {
	id := middleware.Identity(c)
	resp := gin.H{"userId": id.UserID, "email": id.Email}
	user, err := h.Users.Get(c.Request.Context(), id.UserID)
	switch {
	case err == nil:
		resp["user"] = user
	case apperrors.IsNotFound(err):
		// The upsert from Session may not have landed yet.
		h.ensureUser(id)
	default:
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type TodayHandler struct {
	base
	Today *services.TodayService
}

func NewTodayHandler(today *services.TodayService, log *zap.Logger) *TodayHandler {
	return &TodayHandler{base: base{Log: log}, Today: today}
}

func (h *TodayHandler) Get(c *gin.Context) {
	view, err := h.Today.Today(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type SettingsHandler struct {
	base
	Users *repository.UserRepository
}

func NewSettingsHandler(users *repository.UserRepository, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{base: base{Log: log}, Users: users}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.Users.Settings(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req dtos.SettingsUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	settings, err := h.Users.UpdateSettings(c.Request.Context(), middleware.UserID(c), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type SyncHandler struct {
	base
	Users *repository.UserRepository
	Email *services.EmailService
	// OwnerID is the only user whose mailbox is connected. Empty means any user.
	OwnerID string
}

func NewSyncHandler(users *repository.UserRepository, email *services.EmailService, ownerID string, log *zap.Logger) *SyncHandler {
	return &SyncHandler{base: base{Log: log}, Users: users, Email: email, OwnerID: ownerID}
}

func (h *SyncHandler) Status(c *gin.Context) {
	statuses, err := h.Users.SyncStatuses(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": statuses})
}

func (h *SyncHandler) SyncGmail(c *gin.Context) {
	userID := middleware.UserID(c)
	if h.Email == nil {
		h.respondError(c, apperrors.Unavailable("gmail sync is not configured"))
		return
	}
	if h.OwnerID != "" && h.OwnerID != userID {
		h.respondError(c, apperrors.New(http.StatusForbidden, "gmail is connected to another account"))
		return
	}
	status, err := h.Email.Sync(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type ImportHandler struct {
	base
	Imports *services.ImportService
}

func NewImportHandler(imports *services.ImportService, log *zap.Logger) *ImportHandler {
	return &ImportHandler{base: base{Log: log}, Imports: imports}
}

// LinkedIn takes a Connections.csv upload and streams import progress as server-sent events.
func (h *ImportHandler) LinkedIn(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, apperrors.BadRequest("file is required").Wrap(err))
		return
	}
	if header.Size > maxImportSize {
		h.respondError(c, apperrors.BadRequest("file is larger than 10 MB"))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	events, err := h.Imports.ImportLinkedIn(ctx, middleware.UserID(c), file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	setSSEHeaders(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			switch {
			case ev.Err != nil:
				c.SSEvent("error", gin.H{"message": "import failed", "progress": ev.Progress})
				return false
			case ev.Progress.Done:
				c.SSEvent("done", ev.Progress)
				return false
			}
			c.SSEvent("progress", ev.Progress)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Health answers without touching the database.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
