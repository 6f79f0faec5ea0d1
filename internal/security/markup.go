package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// MarkupDetector はプレーンテキスト項目にHTMLのマークアップが含まれるかを判定する。
// 入力値は変更しない。表示時のエスケープはhtml/templateが行う。
type MarkupDetector interface {
	ContainsMarkup(s string) bool
}

type markupDetector struct {
	policy *bluemonday.Policy
}

// NewMarkupDetector はMarkupDetectorを生成する。すべてのタグを許可しないポリシーを使う。
func NewMarkupDetector() *markupDetector {
	return &markupDetector{policy: bluemonday.StrictPolicy()}
}

// ContainsMarkup はMarkupDetectorを実装する。
// ポリシー適用で文字列が変わる場合にマークアップありとみなす。
// エンティティは両側で元の文字に戻してから比較するため「A & B」や「a < b」は対象外。
func (d *markupDetector) ContainsMarkup(s string) bool {
	if s == "" {
		return false
	}
	return html.UnescapeString(d.policy.Sanitize(s)) != html.UnescapeString(s)
}

var _ MarkupDetector = (*markupDetector)(nil)
