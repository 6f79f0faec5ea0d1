package profile

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/bie/internal/model"
)

// Form はプロフィール編集フォームの入力値。
type Form struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Company   string
	Phone     string
}

// FormFromProfile はサーバー側の値からフォームの初期値を作る。
func FormFromProfile(p model.Profile) Form {
	return Form{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Company:   model.StringValue(p.Company),
		Phone:     model.StringValue(p.Phone),
	}
}

// normalize は前後の空白だけを除去したフォームを返す。それ以外の文字は変更しない。
func (f Form) normalize() Form {
	return Form{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Company:   strings.TrimSpace(f.Company),
		Phone:     strings.TrimSpace(f.Phone),
	}
}

// checkMarkup はサーバー側の値から変更された項目にマークアップが含まれていないかを検証する。
// 保存済みの値はそのまま受け入れるため、変更しないフォームの再保存は常に成功する。
func checkMarkup(contains func(string) bool, f Form, current model.Profile) error {
	if contains == nil {
		return nil
	}
	stored := FormFromProfile(current).normalize()
	pairs := [][2]string{
		{f.FirstName, stored.FirstName},
		{f.LastName, stored.LastName},
		{f.Company, stored.Company},
		{f.Phone, stored.Phone},
	}
	for _, p := range pairs {
		if p[0] != p[1] && contains(p[0]) {
			return model.NewValidationError(MsgMarkupNotAllowed)
		}
	}
	return nil
}

// validateForm は必須項目を検証する。名、姓の順に判定し、最初の違反だけを返す。
func validateForm(v *validator.Validate, f Form) error {
	err := v.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "LastName" {
		return model.NewValidationError(MsgLastNameRequired)
	}
	return model.NewValidationError(MsgFirstNameRequired)
}

// changes は部分更新の内容を返す。空の任意項目はNULLとして書き込む。
func (f Form) changes(now time.Time) map[string]any {
	return map[string]any{
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"company":    nullable(f.Company),
		"phone":      nullable(f.Phone),
		"updated_at": now.UTC(),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
