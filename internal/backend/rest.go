package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/bie/internal/model"
)

const (
	profilesPath = "/rest/v1/profiles"

	// singleObjectMediaType は単一行をJSONオブジェクトで受け取るためのAcceptヘッダー値。
	// 該当行が0件の場合はPGRST116エラーになる。
	singleObjectMediaType = "application/vnd.pgrst.object+json"
)

func singleRowHeader(returnRepresentation bool) http.Header {
	h := http.Header{}
	h.Set("Accept", singleObjectMediaType)
	if returnRepresentation {
		h.Set("Prefer", "return=representation")
	}
	return h
}

func idFilter(id string) url.Values {
	return url.Values{"id": {"eq." + id}}
}

// GetProfile はidに一致するプロフィール行を取得する。
// 行が存在しない場合はIsNotFoundで判定できるエラーを返す。
func (c *Client) GetProfile(ctx context.Context, accessToken, id string) (*model.Profile, error) {
	q := idFilter(id)
	q.Set("select", "*")

	var p model.Profile
	err := c.do(ctx, request{
		operation:   "rest.get_profile",
		method:      http.MethodGet,
		path:        profilesPath,
		query:       q,
		accessToken: accessToken,
		header:      singleRowHeader(false),
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertProfile はプロフィール行を作成し、作成された行を返す。
func (c *Client) InsertProfile(ctx context.Context, accessToken string, profile *model.Profile) (*model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, request{
		operation:   "rest.insert_profile",
		method:      http.MethodPost,
		path:        profilesPath,
		accessToken: accessToken,
		header:      singleRowHeader(true),
		jsonBody:    profile,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile はidに一致する行へ部分更新を適用し、更新後の行を返す。
// fieldsの値がnilの項目はNULLに更新される。
func (c *Client) UpdateProfile(ctx context.Context, accessToken, id string, fields map[string]any) (*model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, request{
		operation:   "rest.update_profile",
		method:      http.MethodPatch,
		path:        profilesPath,
		query:       idFilter(id),
		accessToken: accessToken,
		header:      singleRowHeader(true),
		jsonBody:    fields,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
