package model

import (
	"encoding/json"
	"strings"
)

// Profile はサインイン中のユーザーを表す。ローカルストアに保存される。
type Profile struct {
	ID        string `json:"_id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Image     string `json:"image,omitempty"`
	Role      string `json:"role,omitempty"`
	Type      string `json:"type,omitempty"`
}

// FullName は "名 姓" 形式の表示名を返す。
func (p Profile) FullName() string {
	return strings.TrimSpace(p.Firstname + " " + p.Lastname)
}

// SignInRequest は POST /signin のリクエストボディ。
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInData はサインイン成功時に上流が返すユーザー情報とトークン。
type SignInData struct {
	Profile
	Token string `json:"token"`
}

// SignInResponse は POST /signin のレスポンス。
type SignInResponse struct {
	Data SignInData `json:"data"`
}

// School は在籍校の情報。
type School struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Province string `json:"province,omitempty"`
	Logo     string `json:"logo,omitempty"`
}

// Education は学籍情報。
type Education struct {
	Major          string  `json:"major,omitempty"`
	EnrollmentYear string  `json:"enrollmentYear,omitempty"`
	StudentID      string  `json:"studentId,omitempty"`
	School         *School `json:"school,omitempty"`
	Advisor        *Author `json:"advisor,omitempty"`
	Image          string  `json:"image,omitempty"`
}

// ProfileDetail は GET /profile が返す詳細プロフィール。
type ProfileDetail struct {
	Profile
	Confirmed bool              `json:"confirmed,omitempty"`
	Education *Education        `json:"education,omitempty"`
	Job       []json.RawMessage `json:"job,omitempty"`
	CreatedAt string            `json:"createdAt,omitempty"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
}

// ProfileResponse は GET /profile のレスポンス。
type ProfileResponse struct {
	Data ProfileDetail `json:"data"`
}

// Member はクラス名簿の1エントリ。
type Member struct {
	Profile
	Education *Education `json:"education,omitempty"`
}

// MembersResponse は GET /class?year= のレスポンス。
type MembersResponse struct {
	Data []Member `json:"data"`
}
