package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kedai-next/internal/cache"
	"github.com/kedai-next/internal/config"
	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 店员认证服务
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
	audit     *AuditService
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository, audit *AuditService) *AuthService {
	return &AuthService{
		cfg:       cfg,
		adminRepo: adminRepo,
		audit:     audit,
	}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// JWTClaims JWT 声明
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(admin *models.Admin) (string, time.Time, error) {
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := JWTClaims{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	return ParseAdminJWT(s.cfg.JWT.SecretKey, tokenString)
}

// ParseAdminJWT 使用给定密钥解析 JWT
func ParseAdminJWT(secretKey, tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// LoginResult 登录结果
type LoginResult struct {
	Admin     *models.Admin
	Token     string
	ExpiresAt time.Time
}

// Login 店员登录
func (s *AuthService) Login(ctx context.Context, username, password string, actor Actor) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if admin == nil || s.VerifyPassword(admin.PasswordHash, password) != nil {
		s.audit.Record(ctx, AuditInput{
			Actor:     username,
			Action:    constants.AuditActionLoginFailed,
			ClientIP:  actor.ClientIP,
			RequestID: actor.RequestID,
		})
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(admin)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.Update(admin); err != nil {
		return nil, err
	}
	if err := cache.SetAdminAuthState(ctx, cache.BuildAdminAuthState(admin)); err != nil {
		logger.Warnw("auth_state_cache_set_failed", "admin_id", admin.ID, "error", err)
	}
	s.audit.Record(ctx, AuditInput{
		Actor:     admin.Username,
		Action:    constants.AuditActionLogin,
		ClientIP:  actor.ClientIP,
		RequestID: actor.RequestID,
	})
	return &LoginResult{Admin: admin, Token: token, ExpiresAt: expiresAt}, nil
}

// ResolveAdmin 校验 Token 版本并返回账号快照，优先读缓存
func (s *AuthService) ResolveAdmin(ctx context.Context, claims *JWTClaims) (*cache.AdminAuthState, error) {
	return ResolveAdminState(ctx, s.adminRepo, claims)
}

// ResolveAdminState 校验 Token 版本
func ResolveAdminState(ctx context.Context, adminRepo repository.AdminRepository, claims *JWTClaims) (*cache.AdminAuthState, error) {
	if claims == nil || claims.AdminID == 0 {
		return nil, ErrAdminTokenRevoked
	}
	if cached, hit, err := cache.GetAdminAuthState(ctx, claims.AdminID); err == nil && hit && cached != nil {
		if cached.TokenVersion != claims.TokenVersion {
			return nil, ErrAdminTokenRevoked
		}
		return cached, nil
	}
	admin, err := adminRepo.GetByID(claims.AdminID)
	if err != nil {
		return nil, err
	}
	if admin == nil || admin.TokenVersion != claims.TokenVersion {
		return nil, ErrAdminTokenRevoked
	}
	state := cache.BuildAdminAuthState(admin)
	_ = cache.SetAdminAuthState(ctx, state)
	return state, nil
}
