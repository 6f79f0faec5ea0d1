package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// CodeNotFound は単一行取得で行が存在しない場合にREST APIが返すコード。
const CodeNotFound = "PGRST116"

// Error はバックエンドが返したエラーレスポンスを表す。
// 認証・REST・ストレージでボディの形が異なるため、共通の形に正規化して保持する。
type Error struct {
	Operation string
	Status    int
	Code      string
	Message   string
	Details   string
	Hint      string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: backend returned status %d (%s): %s", e.Operation, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Operation, e.Status, e.Message)
}

// AsError はerrがバックエンドのエラーレスポンスであれば*Errorを返す。
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNotFound は行が存在しないことを示すエラーかどうかを判定する。
func IsNotFound(err error) bool {
	e, ok := AsError(err)
	return ok && e.Code == CodeNotFound
}

// MessageContains はエラーメッセージにsubstrが含まれるかを判定する。
func (e *Error) MessageContains(substr string) bool {
	return strings.Contains(e.Message, substr)
}

// errorBody は各APIのエラーボディの和集合。
//
//	REST:     {"code":"PGRST116","message":"...","details":"...","hint":null}
//	認証:     {"error":"invalid_grant","error_description":"..."} または
//	          {"code":400,"error_code":"invalid_credentials","msg":"..."}
//	ストレージ: {"statusCode":"403","error":"Unauthorized","message":"..."}
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Details          *string         `json:"details"`
	Hint             *string         `json:"hint"`
}

// decodeError はエラーレスポンスのボディを*Errorに変換する。
// JSONでない場合はボディ文字列をそのままメッセージとする。
func decodeError(operation string, status int, body []byte) error {
	e := &Error{Operation: operation, Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
		return e
	}

	// codeは文字列（REST）と数値（認証）の両方がある
	var code string
	if len(eb.Code) > 0 && json.Unmarshal(eb.Code, &code) == nil {
		e.Code = code
	}
	if e.Code == "" {
		e.Code = eb.ErrorCode
	}
	if e.Code == "" && eb.ErrorDescription != "" {
		e.Code = eb.Error
	}

	switch {
	case eb.Message != "":
		e.Message = eb.Message
	case eb.Msg != "":
		e.Message = eb.Msg
	case eb.ErrorDescription != "":
		e.Message = eb.ErrorDescription
	case eb.Error != "":
		e.Message = eb.Error
	default:
		e.Message = http.StatusText(status)
	}

	if eb.Details != nil {
		e.Details = *eb.Details
	}
	if eb.Hint != nil {
		e.Hint = *eb.Hint
	}
	return e
}
