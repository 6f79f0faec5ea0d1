package profile

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// NotInformed は未設定の任意項目に表示する文言。
const NotInformed = "Não informado"

// displayZone は日付表示に使うタイムゾーン（UTC-3固定）。
var displayZone = time.FixedZone("BRT", -3*60*60)

// DisplayValue は空の値を「Não informado」に置き換える。
func DisplayValue(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotInformed
	}
	return s
}

// DisplayPtr はポインタ版のDisplayValue。
func DisplayPtr(s *string) string {
	if s == nil {
		return NotInformed
	}
	return DisplayValue(*s)
}

// FormatDate は日付をdd/mm/yyyy形式で返す。nilまたはゼロ値の場合は空文字列を返す。
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(displayZone).Format("02/01/2006")
}

// Initials はアバター未設定時に表示する頭文字を返す。
func Initials(firstName, lastName string) string {
	var b strings.Builder
	for _, s := range []string{firstName, lastName} {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
		if r != utf8.RuneError {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	if b.Len() == 0 {
		return "U"
	}
	return b.String()
}
