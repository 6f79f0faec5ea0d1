package backend

import (
	"context"
	"io"
	"net/http"
	"strconv"
)

// UploadOptions はオブジェクトアップロードのオプション。
type UploadOptions struct {
	ContentType  string
	CacheControl int  // max-age（秒）。0の場合は指定しない
	Upsert       bool // 同名オブジェクトの上書きを許可する
}

func objectPath(bucket, name string) string {
	return "/storage/v1/object/" + bucket + "/" + name
}

// UploadObject はbucketにnameでオブジェクトをアップロードする。
func (c *Client) UploadObject(ctx context.Context, accessToken, bucket, name string, body io.Reader, opts UploadOptions) error {
	h := http.Header{}
	if opts.ContentType != "" {
		h.Set("Content-Type", opts.ContentType)
	}
	if opts.CacheControl > 0 {
		h.Set("Cache-Control", "max-age="+strconv.Itoa(opts.CacheControl))
	}
	h.Set("x-upsert", strconv.FormatBool(opts.Upsert))

	return c.do(ctx, request{
		operation:   "storage.upload",
		method:      http.MethodPost,
		path:        objectPath(bucket, name),
		accessToken: accessToken,
		header:      h,
		body:        body,
	}, nil)
}

// RemoveObjects はbucketから指定した名前のオブジェクトを削除する。
func (c *Client) RemoveObjects(ctx context.Context, accessToken, bucket string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	return c.do(ctx, request{
		operation:   "storage.remove",
		method:      http.MethodDelete,
		path:        "/storage/v1/object/" + bucket,
		accessToken: accessToken,
		jsonBody:    map[string][]string{"prefixes": names},
	}, nil)
}

// PublicURL は公開バケット内オブジェクトの参照URLを返す。ネットワークアクセスは行わない。
func (c *Client) PublicURL(bucket, name string) string {
	return c.endpoint("/storage/v1/object/public/"+bucket+"/"+name, nil)
}
