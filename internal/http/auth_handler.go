package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hunter/internal/service"
)

// AuthHandler holds dependencies for the account endpoints.
type AuthHandler struct {
	logger   *zap.Logger
	identity *service.IdentityService
	tokens   *service.TokenService
}

// NewAuthHandler creates an AuthHandler with its dependencies.
func NewAuthHandler(logger *zap.Logger, identity *service.IdentityService, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		identity: identity,
		tokens:   tokens,
	}
}

// SignUp handles POST /signup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields: email and password"})
		return
	}

	user, err := h.identity.SignUp(c.Request.Context(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Account already exists"})
		case errors.Is(err, service.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid password format"})
		case errors.Is(err, service.ErrCodeDeliveryFailure):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Error delivering verification email"})
		case errors.Is(err, service.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields: email and password"})
		default:
			h.logger.Error("signup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Account created",
		"userConfirmed": user.Confirmed,
		"userSub":       user.ID,
	})
}

// Confirm handles POST /confirm.
func (h *AuthHandler) Confirm(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid confirm request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	if err := h.identity.ConfirmSignUp(c.Request.Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Confirmation code has expired"})
		case errors.Is(err, service.ErrCodeMismatch), errors.Is(err, service.ErrCodeNotRequested):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid confirmation code"})
		default:
			h.logger.Error("confirm failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account confirmed"})
}

// ResendCode handles POST /resendCode. It reissues the confirmation code
// for an account whose sign-up email never arrived.
func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resend request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	if err := h.identity.ResendConfirmation(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrAlreadyConfirmed):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User is already confirmed"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests. Please try again later."})
		case errors.Is(err, service.ErrCodeDeliveryFailure):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Error delivering verification email"})
		default:
			h.logger.Error("resend code failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Confirmation code sent"})
}

// SignIn handles POST /signin.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email or password not provided"})
		return
	}

	user, err := h.identity.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotConfirmed):
			c.JSON(http.StatusForbidden, gin.H{"message": "User not confirmed"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrPasswordResetRequired):
			c.JSON(http.StatusForbidden, gin.H{"message": "Password reset required"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests. Please try again later."})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Incorrect username or password"})
		default:
			h.logger.Error("signin failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		}
		return
	}

	pair, err := h.tokens.GeneratePair(user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Successfully signed in",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
		"tokenType":    pair.TokenType,
		"email":        user.Email,
		"username":     user.Username,
	})
}

// SignOut handles POST /signout. The token travels in the body, matching
// the mobile client contract.
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid token"})
		return
	}

	if err := h.tokens.GlobalSignOut(req.Token); err != nil {
		status, message := tokenErrorResponse(err)
		c.JSON(status, gin.H{"message": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// UpdateUsername handles POST /updateUsername. Accepts the attribute-list
// shape the mobile client sends.
func (h *AuthHandler) UpdateUsername(c *gin.Context) {
	var req struct {
		Token      string `json:"token"`
		Attributes []struct {
			Name  string `json:"Name"`
			Value string `json:"Value"`
		} `json:"attributes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" || len(req.Attributes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	claims, err := h.tokens.ParseAccessToken(req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Not authorized to perform this action"})
		return
	}

	var username string
	for _, attr := range req.Attributes {
		if attr.Name == "preferred_username" {
			username = attr.Value
		}
	}
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	if err := h.identity.UpdateUsername(c.Request.Context(), claims.UserID, username); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotConfirmed):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Please confirm your account first"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Too many requests. Please try again later."})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Not authorized to perform this action"})
		default:
			h.logger.Error("update username failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully updated username"})
}

// ForgotPassword handles POST /forgotPassword.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	if err := h.identity.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests. Please try again later."})
		case errors.Is(err, service.ErrCodeDeliveryFailure):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Error delivering verification email"})
		default:
			h.logger.Error("forgot password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset code sent"})
}

// ResetPassword handles POST /resetPassword.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Code     string `json:"code" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	if err := h.identity.ResetPassword(c.Request.Context(), req.Email, req.Code, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Reset code has expired"})
		case errors.Is(err, service.ErrCodeMismatch), errors.Is(err, service.ErrCodeNotRequested):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid reset code"})
		case errors.Is(err, service.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid password format"})
		default:
			h.logger.Error("reset password failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// Revoke handles POST /oauth2/revoke, the form-encoded refresh token revoke
// federated clients call at sign-out.
func (h *AuthHandler) Revoke(c *gin.Context) {
	clientID := c.PostForm("client_id")
	token := c.PostForm("token")
	if clientID == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	if err := h.tokens.RevokeRefresh(token); err != nil {
		status, message := tokenErrorResponse(err)
		c.JSON(status, gin.H{"message": message})
		return
	}

	c.Status(http.StatusOK)
}

func tokenErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "Access Token has expired"
	case errors.Is(err, service.ErrTokenRevoked):
		return http.StatusUnauthorized, "Access Token has been revoked"
	default:
		return http.StatusUnauthorized, "Invalid token"
	}
}
