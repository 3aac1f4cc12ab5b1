package security

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー投稿をターミナルに表示する前に無害化するインターフェース。
type TextSanitizer interface {
	// Sanitize はHTMLタグと制御文字を除去したプレーンテキストを返す。
	// 改行とタブは保持する。同一入力に対して常に同一出力を返す。
	Sanitize(s string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyでタグを全て除去したのち、エスケープされた実体参照を戻す。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はHTMLタグとターミナル制御文字を除去する。
func (s *textSanitizer) Sanitize(in string) string {
	if in == "" {
		return ""
	}
	// 実体参照で制御文字が埋め込まれる場合があるため、復元後にも除去する
	cleaned := stripControl(in)
	return stripControl(html.UnescapeString(s.policy.Sanitize(cleaned)))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
