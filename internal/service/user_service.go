package service

import (
	"context"
	stderrors "errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/repository"
	"ankahee-backend/internal/repository/interfaces"
	"ankahee-backend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const PasswordMinLength = 6

// UserService 处理注册、登录、注销和删除账户
type UserService struct {
	userRepo     interfaces.UserRepository
	emailService *EmailService
	tokens       *util.TokenIssuer
	feed         realtime.Publisher

	tokenBlacklist map[string]time.Time
	blacklistMutex sync.RWMutex
	now            func() time.Time
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository, emailService *EmailService, tokens *util.TokenIssuer, feed realtime.Publisher) *UserService {
	return &UserService{
		userRepo:       userRepo,
		emailService:   emailService,
		tokens:         tokens,
		feed:           feed,
		tokenBlacklist: make(map[string]time.Time),
		now:            time.Now,
	}
}

// UserServiceInterface 供 API 层和测试替换
type UserServiceInterface interface {
	Signup(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(token string)
	IsTokenBlacklisted(token string) bool
	VerifyEmail(ctx context.Context, token string) error
	DeleteAccount(ctx context.Context, userID string) error
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errors.New(errors.ErrValidation, "invalid email address")
	}
	return email, nil
}

// Signup 注册新用户并发送确认邮件
func (s *UserService) Signup(ctx context.Context, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < PasswordMinLength {
		return nil, errors.New(errors.ErrValidation, "password must be at least 6 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to hash password", err)
	}

	now := s.now()
	user := &model.User{Email: email, PasswordHash: string(hashedPassword), CreatedAt: now, UpdatedAt: now}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.New(errors.ErrUserExists, "an account with this email already exists")
		}
		return nil, storeError(err, "user")
	}

	if s.emailService != nil {
		if err := s.emailService.SendConfirmationEmail(user.Email); err != nil {
			util.Logger.Error("发送确认邮件失败", zap.Error(err))
		}
	}

	util.Logger.Info("用户注册成功", zap.String("user_id", user.ID))
	return user, nil
}

// Login 校验密码并签发会话令牌
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, "", errors.New(errors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, "", storeError(err, "user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Info("用户登录失败，密码不正确", zap.String("user_id", user.ID))
		return nil, "", errors.New(errors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrInternal, "failed to issue token", err)
	}

	util.Logger.Info("用户登录成功", zap.String("user_id", user.ID))
	return user, token, nil
}

// Logout 令牌在黑名单中保留到自然过期
func (s *UserService) Logout(token string) {
	s.blacklistMutex.Lock()
	defer s.blacklistMutex.Unlock()
	now := s.now()
	for t, expiry := range s.tokenBlacklist {
		if now.After(expiry) {
			delete(s.tokenBlacklist, t)
		}
	}
	s.tokenBlacklist[token] = now.Add(util.TokenTTL)
	util.Logger.Info("用户注销，令牌已加入黑名单")
}

func (s *UserService) IsTokenBlacklisted(token string) bool {
	s.blacklistMutex.RLock()
	defer s.blacklistMutex.RUnlock()
	expiry, exists := s.tokenBlacklist[token]
	return exists && s.now().Before(expiry)
}

func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if s.emailService == nil {
		return errors.New(errors.ErrUnavailable, "email verification is disabled")
	}
	email, err := s.emailService.VerifyEmailToken(token)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidToken, "invalid verification token", err)
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return storeError(err, "user")
	}
	if user.IsVerified {
		return nil
	}
	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return storeError(err, "user")
	}
	util.Logger.Info("邮箱验证成功", zap.String("user_id", user.ID))
	return nil
}

// DeleteAccount 删除用户及其内容，并为每条被删除的内容发布删除事件
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return storeError(err, "user")
	}
	deleted, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return storeError(err, "user")
	}
	if deleted == nil {
		return nil
	}

	for _, r := range deleted.Reactions {
		realtime.Emit(s.feed, model.CollectionReactions, model.EventDelete, r.Key(), r.PostID, r)
	}
	for _, c := range deleted.Comments {
		realtime.Emit(s.feed, model.CollectionComments, model.EventDelete, c.ID, c.PostID, c)
	}
	for _, p := range deleted.Posts {
		realtime.Emit(s.feed, model.CollectionPosts, model.EventDelete, p.ID, "", p)
	}
	return nil
}
