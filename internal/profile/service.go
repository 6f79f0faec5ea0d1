// Package profile はプロフィールの取得・自動作成・編集とアバター画像の管理を提供する。
package profile

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/bie/internal/backend"
	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/security"
)

// Backend はプロフィール行とアバター画像の保存先。
type Backend interface {
	GetProfile(ctx context.Context, accessToken, id string) (*model.Profile, error)
	InsertProfile(ctx context.Context, accessToken string, profile *model.Profile) (*model.Profile, error)
	UpdateProfile(ctx context.Context, accessToken, id string, fields map[string]any) (*model.Profile, error)
	UploadObject(ctx context.Context, accessToken, bucket, name string, body io.Reader, opts backend.UploadOptions) error
	RemoveObjects(ctx context.Context, accessToken, bucket string, names ...string) error
	PublicURL(bucket, name string) string
}

// UploadRecorder はアバターアップロードの結果の計測を受け取る。
type UploadRecorder interface {
	RecordAvatarUpload(outcome string)
}

// avatarCacheControl はアップロードするアバター画像のmax-age（秒）。
const avatarCacheControl = 3600

// ServiceConfig はプロフィールサービスの設定。
type ServiceConfig struct {
	AvatarBucket string
}

// Service はプロフィールに関するビジネスロジックを提供する。
type Service struct {
	backend   Backend
	markup    security.MarkupDetector
	recorder  UploadRecorder
	validate  *validator.Validate
	guard     *writeGuard
	bucket    string
	now       func() time.Time
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(b Backend, markup security.MarkupDetector, recorder UploadRecorder, cfg ServiceConfig) *Service {
	bucket := cfg.AvatarBucket
	if bucket == "" {
		bucket = "avatars"
	}
	return &Service{
		backend:   b,
		markup:    markup,
		recorder:  recorder,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		guard:     newWriteGuard(),
		bucket:    bucket,
		now:       time.Now,
	}
}

// LoadResult はLoadの結果。Createdは今回の読み込みで行を作成したことを示す。
type LoadResult struct {
	Profile model.Profile
	Created bool
}

// Load はセッションのユーザーのプロフィールを取得する。
// 行が存在しない場合はセッションの識別情報から作成する。任意項目は未設定のまま作成する。
func (s *Service) Load(ctx context.Context, sess *model.Session) (*LoadResult, error) {
	if sess == nil {
		return nil, model.NewUnauthorizedError()
	}

	p, err := s.backend.GetProfile(ctx, sess.AccessToken, sess.UserID)
	if err == nil {
		return &LoadResult{Profile: *p}, nil
	}
	if !backend.IsNotFound(err) {
		slog.Error("failed to load profile",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProfileError(model.ErrCodeProfileLoad, MsgLoadFailed, err)
	}

	now := s.now().UTC()
	row := &model.Profile{
		ID:        sess.UserID,
		Email:     sess.User.Email,
		FirstName: sess.User.Metadata.FirstName,
		LastName:  sess.User.Metadata.LastName,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	created, err := s.backend.InsertProfile(ctx, sess.AccessToken, row)
	if err != nil {
		slog.Error("failed to create profile",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProfileError(model.ErrCodeProfileCreate, MsgCreateFailed, err)
	}

	slog.Info("profile created", slog.String("user_id", sess.UserID))
	return &LoadResult{Profile: *created, Created: true}, nil
}

// Save は編集フォームの内容でプロフィールを部分更新し、更新後の行を返す。
// currentは編集前に読み込んだサーバー側の値。
// 名・姓が空の場合や、変更した項目にマークアップが含まれる場合は通信せずに検証エラーを返す。
func (s *Service) Save(ctx context.Context, sess *model.Session, current model.Profile, form Form) (*model.Profile, error) {
	if sess == nil {
		return nil, model.NewUnauthorizedError()
	}

	f := form.normalize()
	if err := validateForm(s.validate, f); err != nil {
		return nil, err
	}
	if err := checkMarkup(s.containsMarkup, f, current); err != nil {
		return nil, err
	}

	release, ok := s.guard.tryAcquire(sess.UserID)
	if !ok {
		return nil, model.NewWriteInProgressError()
	}
	defer release()

	updated, err := s.backend.UpdateProfile(ctx, sess.AccessToken, sess.UserID, f.changes(s.now()))
	if err != nil {
		slog.Error("failed to save profile",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProfileError(model.ErrCodeProfileSave, SaveErrorMessage(err), err)
	}
	return updated, nil
}

// UploadAvatar はアバター画像をアップロードしてavatar_urlを更新し、更新後の行を返す。
// 以前の画像は名前が異なる場合に削除を試みる。削除の失敗はログに記録するだけとする。
func (s *Service) UploadAvatar(ctx context.Context, sess *model.Session, current model.Profile, file AvatarFile) (*model.Profile, error) {
	if sess == nil {
		return nil, model.NewUnauthorizedError()
	}

	file, err := sniff(file)
	if err != nil {
		s.recordUpload("failed")
		return nil, model.NewProfileError(model.ErrCodeAvatarUpload, MsgAvatarUnexpected, err)
	}
	if msg := validateAvatar(file); msg != "" {
		s.recordUpload("rejected")
		return nil, model.NewInvalidAvatarError(msg)
	}

	release, ok := s.guard.tryAcquire(sess.UserID)
	if !ok {
		return nil, model.NewWriteInProgressError()
	}
	defer release()

	name := avatarObjectName(sess.UserID, s.now(), avatarExtension(file.Name, file.ContentType))
	err = s.backend.UploadObject(ctx, sess.AccessToken, s.bucket, name, file.Content, backend.UploadOptions{
		ContentType:  file.ContentType,
		CacheControl: avatarCacheControl,
		Upsert:       true,
	})
	if err != nil {
		s.recordUpload("failed")
		slog.Error("failed to upload avatar",
			slog.String("user_id", sess.UserID),
			slog.String("object", name),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProfileError(model.ErrCodeAvatarUpload, UploadErrorMessage(err), err)
	}

	publicURL := s.backend.PublicURL(s.bucket, name)

	if old := objectNameFromURL(model.StringValue(current.AvatarURL)); old != "" && old != name {
		if err := s.backend.RemoveObjects(ctx, sess.AccessToken, s.bucket, old); err != nil {
			slog.Warn("failed to remove previous avatar",
				slog.String("user_id", sess.UserID),
				slog.String("object", old),
				slog.String("error", err.Error()),
			)
		}
	}

	updated, err := s.backend.UpdateProfile(ctx, sess.AccessToken, sess.UserID, map[string]any{
		"avatar_url": publicURL,
		"updated_at": s.now().UTC(),
	})
	if err != nil {
		s.recordUpload("failed")
		slog.Error("failed to save avatar url",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProfileError(model.ErrCodeAvatarUpload, avatarSaveErrorMessage(err), err)
	}

	s.recordUpload("success")
	return updated, nil
}

// RemoveAvatar はアバター画像を削除してavatar_urlをNULLにし、更新後の行を返す。
// アバターが未設定の場合は何もせずcurrentを返す。
func (s *Service) RemoveAvatar(ctx context.Context, sess *model.Session, current model.Profile) (*model.Profile, error) {
	if sess == nil {
		return nil, model.NewUnauthorizedError()
	}
	if !current.HasAvatar() {
		return &current, nil
	}

	release, ok := s.guard.tryAcquire(sess.UserID)
	if !ok {
		return nil, model.NewWriteInProgressError()
	}
	defer release()

	if name := objectNameFromURL(model.StringValue(current.AvatarURL)); name != "" {
		if err := s.backend.RemoveObjects(ctx, sess.AccessToken, s.bucket, name); err != nil {
			slog.Warn("failed to remove avatar object",
				slog.String("user_id", sess.UserID),
				slog.String("object", name),
				slog.String("error", err.Error()),
			)
		}
	}

	updated, err := s.backend.UpdateProfile(ctx, sess.AccessToken, sess.UserID, map[string]any{
		"avatar_url": nil,
		"updated_at": s.now().UTC(),
	})
	if err != nil {
		slog.Error("failed to clear avatar url",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProfileError(model.ErrCodeAvatarRemove, MsgAvatarRemoveFailed, err)
	}
	return updated, nil
}

func (s *Service) containsMarkup(in string) bool {
	if s.markup == nil {
		return false
	}
	return s.markup.ContainsMarkup(in)
}

func (s *Service) recordUpload(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordAvatarUpload(outcome)
	}
}

var _ Backend = (*backend.Client)(nil)

