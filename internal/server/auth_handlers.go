package server

import (
	"time"

	"librarium/internal/middleware"
	"librarium/internal/models"
	"librarium/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register
// @Summary Register
// @Description Create a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration request"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /auth/user/token
// @Summary Login
// @Description Authenticate and receive session cookies
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login credentials"
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/user/token [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	_, pair, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	s.setSessionCookies(c, pair)
	return c.JSON(pair)
}

// Refresh handles PUT /auth/user/token
// @Summary Refresh session
// @Description Rotate the refresh_token cookie and issue a new access token
// @Tags auth
// @Produce json
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/user/token [put]
func (s *Server) Refresh(c *fiber.Ctx) error {
	token := middleware.ExtractRefreshToken(c)
	if token == "" {
		return respondError(c, models.NewInvalidTokenError("Refresh token required"))
	}

	pair, err := s.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	s.setSessionCookies(c, pair)
	return c.JSON(pair)
}

// Logout handles DELETE /auth/user/token
// @Summary Logout
// @Description Expire the refresh token, revoke the access token and clear cookies
// @Tags auth
// @Produce json
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/user/token [delete]
func (s *Server) Logout(c *fiber.Ctx) error {
	token := middleware.ExtractRefreshToken(c)
	if token == "" {
		return respondError(c, models.NewInvalidTokenError("Refresh token required"))
	}

	if err := s.authService.Logout(c.UserContext(), token, middleware.ExtractAccessToken(c)); err != nil {
		return respondError(c, err)
	}

	s.clearSessionCookies(c)
	return c.JSON(fiber.Map{"success": true})
}

// GetCurrentUser handles GET /auth/user
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/user [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetMyLoans handles GET /auth/user/books
// @Summary Loans of the current user
// @Tags auth
// @Produce json
// @Success 200 {array} models.Loan
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /auth/user/books [get]
func (s *Server) GetMyLoans(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	loans, err := s.lendingService.UserLoans(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(loans)
}

func (s *Server) setSessionCookies(c *fiber.Ctx, pair *service.TokenPair) {
	c.Cookie(s.sessionCookie(middleware.AccessTokenCookie, pair.AccessToken,
		time.Duration(s.config.AccessTokenTTLMinutes)*time.Minute))
	c.Cookie(s.sessionCookie(middleware.RefreshTokenCookie, pair.RefreshToken,
		time.Duration(s.config.RefreshTokenTTLMinutes)*time.Minute))
}

func (s *Server) clearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		cookie := s.sessionCookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.Cookie(cookie)
	}
}

func (s *Server) sessionCookie(name, value string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
