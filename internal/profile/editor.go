package profile

import (
	"fmt"

	"github.com/hitoshi/bie/internal/model"
)

// Mode はプロフィール画面の表示モード。
type Mode int

const (
	ModeViewing Mode = iota
	ModeEditing
	ModeSaving
)

func (m Mode) String() string {
	switch m {
	case ModeViewing:
		return "viewing"
	case ModeEditing:
		return "editing"
	case ModeSaving:
		return "saving"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Editor は読み込み済みプロフィールに対する表示・編集の状態遷移を管理する。
//
//	viewing -> editing        Edit
//	editing -> viewing        Cancel（フォームをサーバー側の値に戻す）
//	editing -> saving         BeginSave
//	saving  -> viewing        SaveSucceeded（サーバー側の値を応答で置き換える）
//	saving  -> editing        SaveFailed（入力は保持する）
type Editor struct {
	mode   Mode
	server model.Profile
	form   Form
}

// NewEditor は表示モードのEditorを生成する。
func NewEditor(p model.Profile) *Editor {
	return &Editor{mode: ModeViewing, server: p, form: FormFromProfile(p)}
}

func (e *Editor) Mode() Mode             { return e.mode }
func (e *Editor) Profile() model.Profile { return e.server }
func (e *Editor) Form() Form             { return e.form }

// Edit は編集モードに入る。表示モード以外では何もしない。
func (e *Editor) Edit() {
	if e.mode == ModeViewing {
		e.mode = ModeEditing
	}
}

// SetForm は編集中の入力値を置き換える。
func (e *Editor) SetForm(f Form) {
	if e.mode == ModeEditing {
		e.form = f
	}
}

// Cancel は編集を破棄し、最後に取得したサーバー側の値でフォームを戻す。
func (e *Editor) Cancel() {
	if e.mode == ModeEditing {
		e.mode = ModeViewing
		e.form = FormFromProfile(e.server)
	}
}

// BeginSave は保存中に遷移する。編集モード以外ではエラーを返す。
func (e *Editor) BeginSave() error {
	if e.mode != ModeEditing {
		return fmt.Errorf("cannot save in %s mode", e.mode)
	}
	e.mode = ModeSaving
	return nil
}

// SaveSucceeded は保存結果をサーバー側の値として取り込み、表示モードに戻る。
func (e *Editor) SaveSucceeded(p model.Profile) {
	if e.mode != ModeSaving {
		return
	}
	e.server = p
	e.form = FormFromProfile(p)
	e.mode = ModeViewing
}

// SaveFailed は編集モードに戻る。入力値は保持する。
func (e *Editor) SaveFailed() {
	if e.mode == ModeSaving {
		e.mode = ModeEditing
	}
}

// ReplaceProfile は保存失敗後に取り直した行など、新しいサーバー側の値を取り込む。
// 編集中の入力値は変更しない。
func (e *Editor) ReplaceProfile(p model.Profile) {
	e.server = p
	if e.mode == ModeViewing {
		e.form = FormFromProfile(p)
	}
}
