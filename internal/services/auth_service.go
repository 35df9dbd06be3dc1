package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"rempah/internal/metrics"
	"rempah/internal/models"
	"rempah/internal/repositories"
	"rempah/pkg/logging"
	"rempah/pkg/mailer"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// AuthConfig configures an AuthService. Zero durations fall back to 30 days
// for sessions and 10 minutes for login codes.
type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	TwoFactorTTL time.Duration
	FrontendURL  string

	Now          func() time.Time       // defaults to time.Now
	GenerateCode func() (string, error) // defaults to a random 6-digit code
}

// LoginResult is the outcome of a password check. Either a session was
// opened or a second factor is pending for PendingUserID.
type LoginResult struct {
	User              *models.User
	Token             string
	TwoFactorRequired bool
	PendingUserID     string
}

// AuthService handles registration, login with an optional emailed second
// factor, session tokens and password resets.
type AuthService struct {
	userRepo     repositories.UserRepository
	mail         mailer.Sender
	jwtSecret    []byte
	tokenTTL     time.Duration
	twoFactorTTL time.Duration
	frontendURL  string
	now          func() time.Time
	generateCode func() (string, error)
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, mail mailer.Sender, cfg AuthConfig) *AuthService {
	s := &AuthService{
		userRepo:     userRepo,
		mail:         mail,
		jwtSecret:    []byte(cfg.JWTSecret),
		tokenTTL:     cfg.TokenTTL,
		twoFactorTTL: cfg.TwoFactorTTL,
		frontendURL:  cfg.FrontendURL,
		now:          cfg.Now,
		generateCode: cfg.GenerateCode,
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = 30 * 24 * time.Hour
	}
	if s.twoFactorTTL <= 0 {
		s.twoFactorTTL = 10 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.generateCode == nil {
		s.generateCode = randomCode
	}
	return s
}

// Register creates an account, sends a welcome email and opens a session.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, "", err
	}
	user := &models.User{Name: name, Email: email, Password: hash, Wishlist: []string{}}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	notify(ctx, s.mail, mailer.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Welcome to Rempah Spices, %s!", user.Name),
		Text:    "Thank you for registering with us. Your journey to authentic Indian flavors begins now!",
		HTML:    "<h2>Welcome to Rempah Spices!</h2><p>Your journey to authentic Indian flavors begins now. We're excited to have you.</p>",
	})

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks the password. Users enrolled in two-factor login get a fresh
// code by email instead of a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsTwoFactorEnabled {
		token, err := s.GenerateToken(user.ID)
		if err != nil {
			return nil, err
		}
		return &LoginResult{User: user, Token: token}, nil
	}

	var code string
	err = withRetry(ctx, "user", func() error {
		u, err := s.userRepo.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}
		if code, err = s.generateCode(); err != nil {
			return fmt.Errorf("failed to generate login code: %w", err)
		}
		expire := s.now().Add(s.twoFactorTTL)
		u.TwoFactorCode = code
		u.TwoFactorCodeExpire = &expire
		if err := s.userRepo.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.TwoFactorChallenges.WithLabelValues("issued").Inc()

	minutes := int(s.twoFactorTTL / time.Minute)
	notify(ctx, s.mail, mailer.Message{
		To:      user.Email,
		Subject: "Your 2FA Login Code",
		Text:    fmt.Sprintf("Your login code is %s", code),
		HTML:    fmt.Sprintf("<h2>Rempah Spices Login</h2><p>Your authentication code is: <b>%s</b></p><p>This code expires in %d minutes.</p>", code, minutes),
	})
	return &LoginResult{TwoFactorRequired: true, PendingUserID: user.ID}, nil
}

// VerifyTwoFactor completes a pending login. The code is single use. Every
// failure, including an unknown user, yields ErrInvalidOrExpiredCode.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, userID, code string) (*models.User, string, error) {
	var user *models.User
	err := withRetry(ctx, "user", func() error {
		u, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrInvalidOrExpiredCode
			}
			return err
		}
		if !s.codeMatches(u, code) {
			return ErrInvalidOrExpiredCode
		}
		u.ClearTwoFactor()
		if err := s.userRepo.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredCode) {
			metrics.TwoFactorChallenges.WithLabelValues("rejected").Inc()
		}
		return nil, "", err
	}
	metrics.TwoFactorChallenges.WithLabelValues("verified").Inc()

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) codeMatches(u *models.User, code string) bool {
	if u.TwoFactorCode == "" || u.TwoFactorCodeExpire == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(u.TwoFactorCode), []byte(code)) != 1 {
		return false
	}
	return s.now().Before(*u.TwoFactorCodeExpire)
}

// ToggleTwoFactor flips the user's enrolment and returns the new state.
func (s *AuthService) ToggleTwoFactor(ctx context.Context, userID string) (bool, error) {
	var enabled bool
	err := withRetry(ctx, "user", func() error {
		u, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		u.IsTwoFactorEnabled = !u.IsTwoFactorEnabled
		if !u.IsTwoFactorEnabled {
			u.ClearTwoFactor()
		}
		enabled = u.IsTwoFactorEnabled
		return s.userRepo.Update(ctx, u)
	})
	return enabled, err
}

// RequestPasswordReset mails a one-hour reset link when email belongs to an
// account. Callers must not reveal whether it did.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	err = withRetry(ctx, "user", func() error {
		u, err := s.userRepo.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}
		expire := s.now().Add(resetTokenTTL)
		u.ResetTokenHash = hashResetToken(token)
		u.ResetTokenExpire = &expire
		return s.userRepo.Update(ctx, u)
	})
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/resetpassword/%s", s.frontendURL, token)
	notify(ctx, s.mail, mailer.Message{
		To:      user.Email,
		Subject: "Password Reset Request for Rempah Spices",
		Text:    fmt.Sprintf("Your password reset link is: %s. This link is valid for 1 hour.", resetURL),
		HTML:    fmt.Sprintf(`<h2>Rempah Spices Password Reset</h2><p>Click the link below to reset your password:</p><p><a href="%s">Reset Password</a></p><p>If you did not request this, please ignore this email.</p>`, resetURL),
	})
	logging.Info().Str("user_id", user.ID).Msg("password reset link issued")
	return nil
}

// ResetPassword replaces the password of the account holding token and
// invalidates the token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return withRetry(ctx, "user", func() error {
		u, err := s.userRepo.GetByResetTokenHash(ctx, hashResetToken(token))
		if err != nil {
			return notFound(err, ErrInvalidResetToken)
		}
		if u.ResetTokenExpire == nil || !s.now().Before(*u.ResetTokenExpire) {
			return ErrInvalidResetToken
		}
		u.Password = hash
		u.ResetTokenHash = ""
		u.ResetTokenExpire = nil
		return s.userRepo.Update(ctx, u)
	})
}

// GenerateToken signs a session token for userID.
func (s *AuthService) GenerateToken(userID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a session token and returns its user id. Expiry is
// checked against the service clock.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return "", fmt.Errorf("invalid token: token is expired")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("invalid token: missing user_id")
	}
	return userID, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// randomCode returns a uniformly chosen code in 100000-999999.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
