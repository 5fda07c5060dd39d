package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"monochrome/internal/auth"
	"monochrome/internal/config"
	"monochrome/internal/models"
	"monochrome/internal/policy"
)

// Env holds the handler dependencies.
type Env struct {
	DB     *gorm.DB
	Tokens *auth.Service
	Google auth.GoogleVerifier
	Cfg    config.Config
	Log    zerolog.Logger
}

// --- Request shapes ---

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=1,max=60"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginInput struct {
	Token string `json:"token" binding:"required"`
}

type SetupAdminInput struct {
	Email     string `json:"email" binding:"required,email"`
	SecretKey string `json:"secretKey" binding:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

type userSummary struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

func summarize(u *models.User) userSummary {
	return userSummary{ID: u.ID, Username: u.Username, Role: u.Role}
}

// --- Views ---

// postView overlays the owner-only takedown reason on top of the model's
// JSON shape.
type postView struct {
	*models.Post
	TakedownReason *string `json:"takedownReason,omitempty"`
}

func viewPost(p auth.Principal, post *models.Post) postView {
	return postView{Post: post, TakedownReason: policy.TakedownReasonFor(p, post)}
}

func viewPosts(p auth.Principal, posts []models.Post) []postView {
	views := make([]postView, 0, len(posts))
	for i := range posts {
		views = append(views, viewPost(p, &posts[i]))
	}
	return views
}

// selectUserColumns keeps emails and credential material out of preloaded
// author/commenter records.
func selectUserColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "role", "created_at")
}

// renderError maps policy and lookup failures to HTTP statuses. Anything
// unexpected is logged and collapsed to a bare 500 so internals never
// reach the response.
func (e *Env) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, policy.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, policy.ErrValidation):
		// Validation messages are written for users; only the package
		// prefix is stripped.
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), "policy: ")})
	case errors.Is(err, policy.ErrComplianceRestricted):
		c.JSON(http.StatusForbidden, gin.H{"error": "Compliance: admins cannot view private user posts"})
	case errors.Is(err, policy.ErrContentRemoved):
		c.JSON(http.StatusForbidden, gin.H{"error": "content removed by a moderator"})
	case errors.Is(err, policy.ErrPrivateContent):
		c.JSON(http.StatusForbidden, gin.H{"error": "private content"})
	case errors.Is(err, policy.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		e.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}

// --- Account handlers ---

func (e *Env) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		e.renderError(c, err)
		return
	}

	// Role is forced; a client-supplied role is never read. Uniqueness is
	// left to the email index so two concurrent registrations cannot both
	// pass a pre-check.
	user := models.User{
		Email:        email,
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := e.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already exists"})
			return
		}
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user registered"})
}

func (e *Env) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// The same vague rejection for unknown email and wrong password.
	var user models.User
	if err := e.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		return
	}
	if user.PasswordHash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "use google login"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := e.Tokens.Mint(&user)
	if err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: summarize(&user)})
}

func (e *Env) GoogleLogin(c *gin.Context) {
	if e.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google login is not configured"})
		return
	}
	var input GoogleLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	identity, err := e.Google.Verify(c.Request.Context(), input.Token)
	if err != nil || identity.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "google auth failed"})
		return
	}
	email := strings.ToLower(identity.Email)

	// Upsert by email: first Google login creates the account.
	var user models.User
	err = e.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:    email,
			Username: identity.Name,
			GoogleID: identity.Subject,
			Role:     models.RoleUser,
		}
		err = e.DB.Create(&user).Error
	}
	if err != nil {
		e.renderError(c, err)
		return
	}

	token, err := e.Tokens.Mint(&user)
	if err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: summarize(&user)})
}

// SetupAdmin promotes a user to admin. It is gated by a shared secret
// distinct from the signing key and is not reachable through any
// authenticated surface.
func (e *Env) SetupAdmin(c *gin.Context) {
	var input SetupAdminInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(input.SecretKey), []byte(e.Cfg.AdminSetupSecret)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	var user models.User
	if err := e.DB.Where("email = ?", email).First(&user).Error; err != nil {
		e.renderError(c, err)
		return
	}
	if err := e.DB.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
		e.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user promoted to admin"})
}
