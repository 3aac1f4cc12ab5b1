// Package user はプロフィールとクラス名簿の参照を提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hitoshi/classmate/internal/model"
)

var (
	// ErrYearRequired は入学年度が指定されていない場合のエラー。
	ErrYearRequired = errors.New("year is required")
	// ErrInvalidYear は入学年度が整数でない場合のエラー。
	ErrInvalidYear = errors.New("year must be an integer")
)

// DirectoryAPI はプロフィール・名簿APIのインターフェース。
type DirectoryAPI interface {
	Profile(ctx context.Context) (model.ProfileDetail, error)
	ClassMembers(ctx context.Context, year int) ([]model.Member, error)
}

// Service はユーザー情報参照のサービス層。
type Service struct {
	api    DirectoryAPI
	logger *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(api DirectoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, logger: logger}
}

// Profile はサインイン中ユーザーの詳細プロフィールを取得する。
func (s *Service) Profile(ctx context.Context) (model.ProfileDetail, error) {
	p, err := s.api.Profile(ctx)
	if err != nil {
		return model.ProfileDetail{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return p, nil
}

// Members は入学年度を検証してからクラス名簿を取得する。
// 該当者がいない場合は空のスライスを返す（エラーではない）。
func (s *Service) Members(ctx context.Context, year string) ([]model.Member, error) {
	year = strings.TrimSpace(year)
	if year == "" {
		return nil, ErrYearRequired
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidYear, year)
	}

	members, err := s.api.ClassMembers(ctx, y)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch class members: %w", err)
	}
	if members == nil {
		members = []model.Member{}
	}

	s.logger.Debug("class members fetched",
		slog.Int("year", y),
		slog.Int("count", len(members)),
	)
	return members, nil
}
