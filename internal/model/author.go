package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AuthorKind はAuthorRefがどちらの表現を保持しているかを表す。
type AuthorKind int

const (
	// AuthorNone は作者情報が欠落している状態。
	AuthorNone AuthorKind = iota
	// AuthorIdentifier は作者IDの文字列のみを保持する状態。
	AuthorIdentifier
	// AuthorEmbedded は作者のプロフィール断片を埋め込んで保持する状態。
	AuthorEmbedded
)

// Author は上流APIが埋め込み形式で返す作者情報。
type Author struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// AuthorRef は投稿・コメント・いいねの作者参照。
// 上流APIはエンドポイントによって作者IDの文字列か埋め込みオブジェクトのどちらかを返すため、
// 両方を明示的なバリアントとして保持する。
type AuthorRef struct {
	kind     AuthorKind
	id       string
	embedded Author
}

// IdentifierRef は作者IDのみのAuthorRefを生成する。
func IdentifierRef(id string) AuthorRef {
	return AuthorRef{kind: AuthorIdentifier, id: id}
}

// EmbeddedRef は埋め込み形式のAuthorRefを生成する。
func EmbeddedRef(a Author) AuthorRef {
	return AuthorRef{kind: AuthorEmbedded, embedded: a}
}

// Kind は保持している表現の種類を返す。
func (r AuthorRef) Kind() AuthorKind {
	return r.kind
}

// IsEmbedded は埋め込み形式を保持しているかを返す。
func (r AuthorRef) IsEmbedded() bool {
	return r.kind == AuthorEmbedded
}

// IsIdentifier はID文字列のみを保持しているかを返す。
func (r AuthorRef) IsIdentifier() bool {
	return r.kind == AuthorIdentifier
}

// ID は作者IDを返す。埋め込み形式の場合は_idフィールドの値。
func (r AuthorRef) ID() string {
	switch r.kind {
	case AuthorIdentifier:
		return r.id
	case AuthorEmbedded:
		return r.embedded.ID
	default:
		return ""
	}
}

// Embedded は埋め込み形式の作者情報を返す。ID形式の場合はfalseを返す。
func (r AuthorRef) Embedded() (Author, bool) {
	if r.kind != AuthorEmbedded {
		return Author{}, false
	}
	return r.embedded, true
}

// DisplayName は表示用の作者名を返す。
// 埋め込み形式では name → email の順に採用し、どちらも無ければ "unknown" を返す。
func (r AuthorRef) DisplayName() string {
	switch r.kind {
	case AuthorIdentifier:
		if r.id != "" {
			return r.id
		}
	case AuthorEmbedded:
		if r.embedded.Name != "" {
			return r.embedded.Name
		}
		if r.embedded.Email != "" {
			return r.embedded.Email
		}
	}
	return "unknown"
}

// MatchesUser は作者が指定ユーザーと一致するかを判定する。
// ID形式ではIDまたはメールアドレスとの一致、埋め込み形式では_idの一致か
// （emailが指定された場合のみ）emailの一致で判定する。
func (r AuthorRef) MatchesUser(userID, email string) bool {
	switch r.kind {
	case AuthorIdentifier:
		if r.id == "" {
			return false
		}
		return (userID != "" && r.id == userID) || (email != "" && r.id == email)
	case AuthorEmbedded:
		if userID != "" && r.embedded.ID == userID {
			return true
		}
		return email != "" && r.embedded.Email == email
	default:
		return false
	}
}

// UnmarshalJSON は文字列ならID形式、オブジェクトなら埋め込み形式としてデコードする。
func (r *AuthorRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = AuthorRef{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("decode author identifier: %w", err)
		}
		*r = IdentifierRef(id)
		return nil
	case '{':
		var a Author
		if err := json.Unmarshal(trimmed, &a); err != nil {
			return fmt.Errorf("decode embedded author: %w", err)
		}
		*r = EmbeddedRef(a)
		return nil
	default:
		return fmt.Errorf("unsupported author reference: %s", string(trimmed))
	}
}

// MarshalJSON は保持している表現をそのままの形でエンコードする。
func (r AuthorRef) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case AuthorIdentifier:
		return json.Marshal(r.id)
	case AuthorEmbedded:
		return json.Marshal(r.embedded)
	default:
		return []byte("null"), nil
	}
}
