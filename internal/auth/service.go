// Package auth 管理员登录
//
// 提供登录、退出、当前用户查询和登录状态变化通知。
// 账号来自配置（邮箱 + bcrypt 哈希），登录成功后签发 HS256 JWT。
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated 未登录、令牌无效或已退出
	ErrUnauthenticated = errors.New("unauthenticated")
)

// User 登录用户
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Session 登录结果
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// Account 管理员账号
type Account struct {
	Email        string
	PasswordHash string
}

// Service 登录服务
type Service struct {
	jwt      *JWTManager
	accounts map[string]Account
	logger   zerolog.Logger

	mu        sync.Mutex
	revoked   map[string]time.Time
	listeners map[int]func(*User)
	nextID    int
}

// NewService 创建登录服务
func NewService(jwt *JWTManager, accounts []Account, logger zerolog.Logger) *Service {
	byEmail := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		if a.Email == "" {
			continue
		}
		byEmail[normalizeEmail(a.Email)] = a
	}

	return &Service{
		jwt:       jwt,
		accounts:  byEmail,
		logger:    logger.With().Str("component", "auth").Logger(),
		revoked:   make(map[string]time.Time),
		listeners: make(map[int]func(*User)),
	}
}

// SignIn 邮箱密码登录
func (s *Service) SignIn(_ context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, ok := s.accounts[email]
	if !ok {
		s.logger.Warn().Str("email", email).Msg("sign-in for unknown account")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn().Str("email", email).Msg("sign-in with wrong password")
		return nil, ErrInvalidCredentials
	}

	user := &User{
		UID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Email: email,
	}
	token, claims, err := s.jwt.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.notify(user)
	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

// SignOut 退出登录，令牌在过期前都不再有效
func (s *Service) SignOut(_ context.Context, token string) error {
	claims, err := s.validate(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.pruneLocked()
	s.mu.Unlock()

	s.notify(nil)
	return nil
}

// CurrentUser 返回令牌对应的用户
func (s *Service) CurrentUser(_ context.Context, token string) (*User, error) {
	claims, err := s.validate(token)
	if err != nil {
		return nil, err
	}
	return &User{UID: claims.Subject, Email: claims.Email}, nil
}

// OnAuthStateChanged 订阅登录状态变化：登录时收到用户，退出时收到 nil
func (s *Service) OnAuthStateChanged(fn func(*User)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) validate(token string) (*Claims, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	}
	return claims, nil
}

func (s *Service) notify(user *User) {
	s.mu.Lock()
	fns := make([]func(*User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

// pruneLocked 清理已过期的吊销记录，调用方持有锁
func (s *Service) pruneLocked() {
	now := s.jwt.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
