package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/incluiaqui/incluiaqui-server/internal/application"
	"github.com/incluiaqui/incluiaqui-server/internal/domain/entity"
	"github.com/incluiaqui/incluiaqui-server/pkg/apperror"
	"github.com/incluiaqui/incluiaqui-server/pkg/helpers"
	"github.com/incluiaqui/incluiaqui-server/pkg/mailer"
	"github.com/incluiaqui/incluiaqui-server/pkg/optional"
	"github.com/incluiaqui/incluiaqui-server/pkg/response"
	"github.com/incluiaqui/incluiaqui-server/pkg/validation"
)

// UserHandler translates HTTP payloads to UserService calls and service
// errors to envelope responses. GCS, search and the mail queue are optional;
// their endpoints degrade when unconfigured.
type UserHandler struct {
	Svc       *application.UserService
	Search    *application.UserSearch
	Logger    *logrus.Logger
	GCS       *storage.Client
	GCSBucket string
	Mail      *helpers.RabbitPublisher
}

func NewUserHandler(svc *application.UserService, search *application.UserSearch, logger *logrus.Logger, gcs *storage.Client, gcsBucket string, mail *helpers.RabbitPublisher) *UserHandler {
	return &UserHandler{Svc: svc, Search: search, Logger: logger, GCS: gcs, GCSBucket: gcsBucket, Mail: mail}
}

type createUserRequest struct {
	Username        string          `json:"username" binding:"required,min=3,max=50"`
	Email           string          `json:"email" binding:"required,email,max=100"`
	Password        string          `json:"password" binding:"required,pwd"`
	Role            string          `json:"role" binding:"required,oneof=client merchant admin moderator"`
	Points          *int            `json:"points" binding:"omitempty,gte=0"`
	ProfileImageURL *string         `json:"profile_image_url" binding:"omitempty,url,max=255"`
	PreferencesJSON json.RawMessage `json:"preferences_json"`
}

// updateUserRequest wraps every field so an omitted key, an explicit null and
// a value stay distinguishable. Username is immutable and not accepted here.
type updateUserRequest struct {
	Email           optional.Value[string]          `json:"email"`
	Password        optional.Value[string]          `json:"password"`
	Role            optional.Value[string]          `json:"role"`
	Points          optional.Value[int]             `json:"points"`
	ProfileImageURL optional.Value[string]          `json:"profile_image_url"`
	PreferencesJSON optional.Value[json.RawMessage] `json:"preferences_json"`
}

// userView is the outward representation of a user. The password hash never
// appears here.
type userView struct {
	ID              uuid.UUID       `json:"id"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	Role            entity.Role     `json:"role"`
	Points          int             `json:"points"`
	ProfileImageURL *string         `json:"profile_image_url"`
	PreferencesJSON json.RawMessage `json:"preferences_json,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func viewOf(u *entity.User) userView {
	return userView{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
		Points:          u.Points,
		ProfileImageURL: u.ProfileImageURL,
		PreferencesJSON: u.PreferencesJSON,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// writeServiceError maps business errors to their fail responses and
// everything else to a generic 500.
func (h *UserHandler) writeServiceError(c *gin.Context, err error) {
	if ae, ok := apperror.As(err); ok {
		response.Fail(c, ae.StatusCode(), ae.Error(), nil)
		return
	}
	h.Logger.WithError(err).Error("user operation failed")
	response.Error(c, http.StatusInternalServerError, "internal server error")
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid user id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	in := application.CreateUserInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		Role:            entity.Role(req.Role),
		ProfileImageURL: req.ProfileImageURL,
		PreferencesJSON: req.PreferencesJSON,
	}
	if req.Points != nil {
		in.Points = *req.Points
	}

	u, err := h.Svc.CreateUser(c.Request.Context(), in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.Search.Index(c.Request.Context(), u)
	h.publishWelcome(c, u)

	response.Success(c, http.StatusCreated, viewOf(u), "user created")
}

func (h *UserHandler) publishWelcome(c *gin.Context, u *entity.User) {
	if h.Mail == nil {
		return
	}
	job := mailer.EmailJob{
		To:      u.Email,
		Type:    mailer.TypeWelcome,
		Subject: "Welcome to IncluiAqui",
		Data:    map[string]any{"Username": u.Username},
	}
	if err := h.Mail.PublishJSON(c.Request.Context(), job); err != nil {
		h.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email publish failed")
	}
}

func (h *UserHandler) List(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		response.Fail(c, http.StatusBadRequest, "skip must be a non-negative integer", nil)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		response.Fail(c, http.StatusBadRequest, "limit must be a positive integer", nil)
		return
	}

	users, err := h.Svc.ListUsers(c.Request.Context(), skip, limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewOf(u))
	}
	response.Success(c, http.StatusOK, views, "users")
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	u, err := h.Svc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, viewOf(u), "user")
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if details := validateUpdate(&req); len(details) > 0 {
		response.Fail(c, http.StatusBadRequest, "invalid payload", details)
		return
	}

	in := application.UpdateUserInput{
		Email:           req.Email,
		Password:        req.Password,
		Points:          req.Points,
		ProfileImageURL: req.ProfileImageURL,
		PreferencesJSON: req.PreferencesJSON,
	}
	if role, ok := req.Role.Get(); ok {
		in.Role = optional.Of(entity.Role(role))
	}

	u, err := h.Svc.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.Search.Index(c.Request.Context(), u)

	response.Success(c, http.StatusOK, viewOf(u), "user updated")
}

// validateUpdate checks provided non-null fields. Binding tags cannot reach
// inside the optional wrappers, so the checks live here.
func validateUpdate(req *updateUserRequest) map[string]string {
	details := map[string]string{}
	if req.Email.Set {
		email, ok := req.Email.Get()
		if !ok {
			details["email"] = "must not be null"
		} else if validation.Var(email, "email") != nil {
			details["email"] = "must be a valid email"
		}
	}
	if password, ok := req.Password.Get(); ok && password != "" && len(password) < 8 {
		details["password"] = "must be at least 8 characters long"
	}
	if req.Role.Set {
		role, ok := req.Role.Get()
		if !ok || !entity.Role(role).Valid() {
			details["role"] = "must be one of: client, merchant, admin, moderator"
		}
	}
	if req.Points.Set {
		points, ok := req.Points.Get()
		if !ok || points < 0 {
			details["points"] = "must be greater than or equal to 0"
		}
	}
	if url, ok := req.ProfileImageURL.Get(); ok && validation.Var(url, "url") != nil {
		details["profile_image_url"] = "must be a valid URL"
	}
	return details
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	u, err := h.Svc.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.Search.Remove(c.Request.Context(), id)

	response.Success(c, http.StatusOK, viewOf(u), "user deleted")
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Fail(c, http.StatusBadRequest, "q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Search.Search(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("user search failed")
		response.Error(c, http.StatusInternalServerError, "internal server error")
		return
	}
	response.Success(c, http.StatusOK, hits, "search results")
}

// UploadImage stores a profile image in GCS and records its URL through the
// regular partial-update path.
func (h *UserHandler) UploadImage(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	if h.GCS == nil || h.GCSBucket == "" {
		response.Error(c, http.StatusServiceUnavailable, "image storage not configured")
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "image file is required", nil)
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Fail(c, http.StatusBadRequest, "file must be an image", nil)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	objectPath := filepath.ToSlash(filepath.Join("profile-images", id.String(), uuid.NewString()+ext))
	url, err := helpers.UploadObject(c.Request.Context(), h.GCS, h.GCSBucket, objectPath, contentType, file)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", id).Error("image upload failed")
		response.Error(c, http.StatusInternalServerError, "internal server error")
		return
	}

	u, err := h.Svc.UpdateUser(c.Request.Context(), id, application.UpdateUserInput{
		ProfileImageURL: optional.Of(url),
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.Search.Index(c.Request.Context(), u)

	response.Success(c, http.StatusOK, viewOf(u), "profile image updated")
}
