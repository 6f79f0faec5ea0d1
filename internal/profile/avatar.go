package profile

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// MaxAvatarSize はアバター画像の最大サイズ（5MiB）。
const MaxAvatarSize = 5 * 1024 * 1024

// sniffLen はMIMEタイプ判定のために先読みするバイト数。
const sniffLen = 3072

// AvatarFile はアップロードされたアバター画像。
type AvatarFile struct {
	Name        string
	ContentType string // multipartのContent-Type。空の場合は内容から判定する
	Size        int64
	Content     io.Reader
}

// sniff は宣言されたContent-Typeが空または汎用の場合に内容からMIMEタイプを判定する。
// 先読みした分は戻り値のReaderに含まれる。
func sniff(f AvatarFile) (AvatarFile, error) {
	ct := strings.TrimSpace(f.ContentType)
	if ct != "" && ct != "application/octet-stream" {
		f.ContentType = ct
		return f, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Content, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return f, fmt.Errorf("failed to read avatar: %w", err)
	}
	head = head[:n]

	f.ContentType = mimetype.Detect(head).String()
	f.Content = io.MultiReader(bytes.NewReader(head), f.Content)
	return f, nil
}

// validateAvatar はMIMEタイプとサイズを検証し、違反時は画面表示用の文言を返す。
func validateAvatar(f AvatarFile) string {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return MsgAvatarNotImage
	}
	if f.Size > MaxAvatarSize {
		return MsgAvatarTooLarge
	}
	return ""
}

// avatarExtension は元のファイル名の最後のドット以降を拡張子とする。
// ドットがない場合はMIMEタイプから求める。
func avatarExtension(name, contentType string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if i := strings.LastIndex(base, "."); i >= 0 && i < len(base)-1 {
		return base[i+1:]
	}

	mediaType, _, _ := strings.Cut(contentType, ";")
	if mt := mimetype.Lookup(strings.TrimSpace(mediaType)); mt != nil && mt.Extension() != "" {
		return strings.TrimPrefix(mt.Extension(), ".")
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok && sub != "" {
		return sub
	}
	return "img"
}

// avatarObjectName はストレージ上のオブジェクト名 {userID}_{unixMillis}.{ext} を返す。
func avatarObjectName(userID string, now time.Time, ext string) string {
	return fmt.Sprintf("%s_%d.%s", userID, now.UnixMilli(), ext)
}

// objectNameFromURL は公開URLの最後のパス要素をオブジェクト名として返す。
func objectNameFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
