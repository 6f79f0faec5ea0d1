package repository

import "errors"

// ErrSessionNotFound は更新対象のセッションが存在しない場合のエラー。
var ErrSessionNotFound = errors.New("session not found")
