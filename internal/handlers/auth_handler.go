package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailauth/internal/middleware"
	"mailauth/internal/models"
	"mailauth/internal/services"
)

type AuthHandler struct {
	auth services.AuthService

	clientURL      string
	debugExposeOTP bool
}

func NewAuthHandler(auth services.AuthService, clientURL string, debugExposeOTP bool) *AuthHandler {
	return &AuthHandler{auth: auth, clientURL: clientURL, debugExposeOTP: debugExposeOTP}
}

// @Summary      Signup
// @Description  Registers an unverified user and sends a verification link by email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup  body      models.SignupRequest  true  "Signup data"
// @Success      200     {object}  map[string]string
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := h.auth.Signup(req.Name, req.Email, req.Phone); err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already registered"})
			return
		}
		log.Printf("[auth][signup] error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification email sent"})
}

// @Summary      Verify email
// @Description  Redeems a verification token and redirects back to the app
// @Tags         Auth
// @Param        token  path  string  true  "Verification token"
// @Success      302
// @Router       /api/auth/verify/{token} [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Param("token")

	_, err := h.auth.VerifyEmail(token)
	if err != nil {
		// ссылка открывается из письма, поэтому не JSON, а редирект
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			c.Redirect(http.StatusFound, h.clientURL+"/login?verified=expired")
		default:
			log.Printf("[auth][verify] error: %v", err)
			c.Redirect(http.StatusFound, h.clientURL+"/login?verified=false")
		}
		return
	}

	c.Redirect(http.StatusFound, h.clientURL+"/login?verified=true")
}

// @Summary      Request OTP
// @Description  Issues a one-time passcode and emails it to a verified user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.SendOTPRequest  true  "Target email"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /api/auth/send-otp [post]
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req models.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}

	code, err := h.auth.RequestOTP(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, services.ErrEmailNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"message": "Email not verified"})
		case errors.Is(err, services.ErrOTPDelivery):
			resp := gin.H{"message": "Failed to deliver OTP"}
			if h.debugExposeOTP {
				resp["otp"] = code
			}
			c.JSON(http.StatusBadGateway, resp)
		default:
			log.Printf("[auth][otp] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

// @Summary      Verify OTP
// @Description  Exchanges a valid OTP for a session token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.VerifyOTPRequest  true  "Email and code"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Router       /api/auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	token, user, err := h.auth.VerifyOTP(req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, services.ErrOTPInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired OTP"})
			return
		}
		log.Printf("[auth][otp] verify error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "OTP verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// @Summary      Google login
// @Description  Verifies a Google ID token and signs the user in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.GoogleLoginRequest  true  "Google ID token"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Router       /api/auth/google [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req models.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Token missing"})
		return
	}

	token, user, err := h.auth.GoogleLogin(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired),
			errors.Is(err, services.ErrAudienceMismatch),
			errors.Is(err, services.ErrTokenMalformed),
			errors.Is(err, services.ErrMissingEmail):
			log.Printf("[auth][google] rejected: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Google authentication failed"})
		default:
			log.Printf("[auth][google] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// @Summary      Current user
// @Description  Returns the user behind the presented session token
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	user, err := h.auth.GetUserByID(userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Healthz отвечает на проверку живости.
func Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
