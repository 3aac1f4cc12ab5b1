// Package auth はサインイン・サインアウトとセッションの保存を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/classmate/internal/model"
)

var (
	// ErrMissingCredentials はメールアドレスまたはパスワードが空の場合のエラー。
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrMissingToken はサインインのレスポンスにトークンが含まれていない場合のエラー。
	ErrMissingToken = errors.New("sign-in response did not include a token")
	// ErrNotSignedIn はセッションが存在しない場合のエラー。
	ErrNotSignedIn = errors.New("not signed in")
)

// SignInAPI はサインインAPIのインターフェース。
type SignInAPI interface {
	SignIn(ctx context.Context, email, password string) (model.SignInData, error)
}

// SessionStore はセッションの保存先のインターフェース。
// credential.Managerが実装する。
type SessionStore interface {
	SaveSession(ctx context.Context, token string, profile model.Profile)
	ClearSession(ctx context.Context)
	Token(ctx context.Context) string
	Profile(ctx context.Context) (model.Profile, bool)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	api      SignInAPI
	sessions SessionStore
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(api SignInAPI, sessions SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:      api,
		sessions: sessions,
		logger:   logger,
	}
}

// Login はサインインし、トークンとプロフィールをセッションとして保存する。
// 入力の前後の空白は除去し、空の場合はリクエストを送らずにエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (model.Profile, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return model.Profile{}, ErrMissingCredentials
	}

	data, err := s.api.SignIn(ctx, email, password)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to sign in: %w", err)
	}
	if data.Token == "" {
		return model.Profile{}, ErrMissingToken
	}

	profile := data.Profile
	s.sessions.SaveSession(ctx, data.Token, profile)

	s.logger.Info("user signed in",
		slog.String("user_id", profile.ID),
		slog.String("email", profile.Email),
	)
	return profile, nil
}

// Logout はセッションを破棄する。セッションが無い場合も成功として扱う。
func (s *Service) Logout(ctx context.Context) {
	profile, ok := s.sessions.Profile(ctx)
	s.sessions.ClearSession(ctx)

	if ok {
		s.logger.Info("user signed out", slog.String("user_id", profile.ID))
	}
}

// CurrentUser は保存済みセッションのプロフィールを返す。
func (s *Service) CurrentUser(ctx context.Context) (model.Profile, error) {
	if s.sessions.Token(ctx) == "" {
		return model.Profile{}, ErrNotSignedIn
	}
	profile, ok := s.sessions.Profile(ctx)
	if !ok {
		return model.Profile{}, ErrNotSignedIn
	}
	return profile, nil
}
