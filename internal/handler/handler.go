// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/hitoshi/bie/internal/flash"
	"github.com/hitoshi/bie/internal/middleware"
	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/web"
)

// 共通の文言
const (
	MsgUnexpected = "Erro inesperado. Tente novamente."
	MsgNotFound   = "Página não encontrada."
	MsgServer     = "Erro inesperado."
)

// Renderer は画面を描画する。
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, page *web.Page)
}

// FlashStore は一時メッセージを読み書きする。
type FlashStore interface {
	Success(w http.ResponseWriter, text string, lifetime time.Duration)
	Error(w http.ResponseWriter, text string)
	Pop(w http.ResponseWriter, r *http.Request) (flash.Message, bool)
}

// pages は画面を描画するハンドラーが共通で使う描画処理。
type pages struct {
	renderer Renderer
	flash    FlashStore
}

// page はレイアウト共通の表示データを組み立てる。一時メッセージはここで消費する。
func (p pages) page(w http.ResponseWriter, r *http.Request, title string, data any) *web.Page {
	page := &web.Page{
		Title:     title,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Data:      data,
	}
	if p.flash != nil {
		if m, ok := p.flash.Pop(w, r); ok {
			page.Flash = &m
		}
	}
	return page
}

func (p pages) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	p.renderer.Render(w, status, name, p.page(w, r, title, data))
}

func (p pages) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	p.render(w, r, status, web.PageError, "Erro", web.ErrorView{Status: status, Message: message})
}

// userMessage はエラーから画面に表示する文言を取り出す。
// 利用者向けのエラーでなければfallbackを返す。
func userMessage(err error, fallback string) string {
	var appErr *model.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// ErrorPages はルーター全体で使うエラー画面。
type ErrorPages struct {
	pages
}

// NewErrorPages はErrorPagesを生成する。
func NewErrorPages(renderer Renderer) *ErrorPages {
	return &ErrorPages{pages: pages{renderer: renderer}}
}

// NotFound は404画面を描画する。
func (h *ErrorPages) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, MsgNotFound)
}

// MethodNotAllowed は405画面を描画する。
func (h *ErrorPages) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

// Panic はpanicから復帰した後の500画面を描画する。
func (h *ErrorPages) Panic(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusInternalServerError, MsgServer)
}
