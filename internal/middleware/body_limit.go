package middleware

import "net/http"

// NewBodyLimitMiddleware はリクエストボディの最大バイト数を制限するミドルウェアを返す。
// Content-Lengthが上限を超える場合はtooLargeで応答する。nilなら413を返す。
// 長さが宣言されていない場合は上限を超えた読み込みがhttp.MaxBytesErrorとなる。
func NewBodyLimitMiddleware(maxBytes int64, tooLarge http.HandlerFunc) func(next http.Handler) http.Handler {
	if tooLarge == nil {
		tooLarge = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				tooLarge(w, r)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
