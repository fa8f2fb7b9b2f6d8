// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campuswell/internal/models"
	"campuswell/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "campuswell-api"
	tokenAudience = "campuswell-client"
	tokenTTL      = time.Hour

	totpIssuer = "CampusWell"
	qrSize     = 256
)

// Login handles POST /api/auth/login.
//
// The response depends on the account state:
//   - unknown email: the account is created on the spot and the TOTP
//     enrollment payload (provisioning URI + QR code) is returned with 201.
//   - known email, 2FA not yet enabled: a fresh secret is issued and the
//     enrollment payload returned.
//   - known email, 2FA enabled but not verified: the client is told to
//     call verify-2fa.
//   - known email, 2FA enabled and verified: a bearer token is issued.
//
// Wrong password on a known account is 401, disabled accounts are 403.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}

	// First login creates the account and starts TOTP enrollment.
	if user == nil {
		return s.createAccountForLogin(c, req.Email, req.Password)
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	if user.Disabled {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Account is disabled"))
	}

	if !user.TwoFactorEnabled {
		// Enrollment never completed; issue a fresh secret and restart it.
		payload, err := s.startEnrollment(c, user)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(payload)
	}

	if !user.TwoFactorVerified {
		return c.JSON(fiber.Map{
			"user_id": user.ID,
			"status":  "verification_required",
		})
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// createAccountForLogin registers a new user from a first login attempt
// and responds with the enrollment payload.
func (s *Server) createAccountForLogin(c *fiber.Ctx, email, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	username, err := s.usernameFromEmail(c, email)
	if err != nil {
		return respondError(c, err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleStudent,
	}
	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		return respondError(c, createErr)
	}

	payload, err := s.startEnrollment(c, user)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payload)
}

// startEnrollment issues a new TOTP secret for the user and builds the
// enrollment response. The secret itself never appears in the payload,
// only the provisioning URI and its QR rendering.
func (s *Server) startEnrollment(c *fiber.Ctx, user *models.User) (fiber.Map, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user.TwoFactorSecret = key.Secret()
	user.TwoFactorVerified = false
	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, qrSize)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return fiber.Map{
		"user_id":     user.ID,
		"status":      "enrollment",
		"otpauth_url": key.URL(),
		"qr_png":      "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// usernameFromEmail derives a unique username from the email local part.
func (s *Server) usernameFromEmail(c *fiber.Ctx, email string) (string, error) {
	base := strings.SplitN(email, "@", 2)[0]
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return '_'
	}, base)
	if len(base) < 3 {
		base = base + "_user"
	}

	existing, err := s.userRepo.GetByUsername(c.Context(), base)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return base, nil
	}
	return base + "_" + uuid.NewString()[:8], nil
}

// VerifyTwoFactor handles POST /api/auth/verify-2fa. A valid code marks
// the account verified (and enabled, on first verification) and issues
// the 1-hour bearer token. An invalid code leaves the flags untouched.
func (s *Server) VerifyTwoFactor(c *fiber.Ctx) error {
	var req struct {
		UserID uint   `json:"user_id"`
		Code   string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidateOTPCode(req.Code); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	user, err := s.userRepo.GetByID(c.Context(), req.UserID)
	if err != nil {
		// Do not reveal whether the account exists.
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid verification code"))
	}

	if user.Disabled {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Account is disabled"))
	}

	if user.TwoFactorSecret == "" || !totp.Validate(req.Code, user.TwoFactorSecret) {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid verification code"))
	}

	user.TwoFactorEnabled = true
	user.TwoFactorVerified = true
	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// EnableTwoFactor handles POST /api/auth/enable-2fa. It rotates the TOTP
// secret for the authenticated user and restarts enrollment; the account
// must verify again before the new secret counts.
func (s *Server) EnableTwoFactor(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	payload, err := s.startEnrollment(c, user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(payload)
}

// Logout handles POST /api/auth/logout by blacklisting the token's jti
// until its natural expiry.
func (s *Server) Logout(c *fiber.Ctx) error {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid token claims"))
	}

	if jti, exists := claims["jti"].(string); exists && jti != "" && s.redis != nil {
		ttl := tokenTTL
		if exp, ok := claims["exp"].(float64); ok {
			if remaining := time.Until(time.Unix(int64(exp), 0)); remaining > 0 {
				ttl = remaining
			}
		}
		if err := s.redis.Set(c.Context(), "blacklist:"+jti, "1", ttl).Err(); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
