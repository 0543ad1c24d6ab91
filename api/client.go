package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// メタデータ系APIコールのタイムアウト
	shortTimeout = 60 * time.Second
	// アーカイブ転送系APIコールのタイムアウト
	longTimeout = 300 * time.Second

	// ページネーションの1ページあたりの件数
	perPage = 100

	// ダウンロード時のチャンクサイズ（1MiB）
	downloadChunkSize = 1 << 20
)

// APIError はGitLab APIからの2xx/404以外の応答を表します
type APIError struct {
	StatusCode int
	Body       string
}

// Error はエラーメッセージを返します
func (e *APIError) Error() string {
	return fmt.Sprintf("APIエラー (ステータス %d): %s", e.StatusCode, e.Body)
}

// IsConflict は「既に存在する」ことを示す競合系エラーかどうかを返します
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusConflict
}

// IsConflict はエラーが競合系のAPIエラーかどうかを判定します
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsConflict()
}

// Client はGitLabインスタンス1つとのやり取りを処理します
type Client struct {
	baseURL  string
	token    string
	client   *http.Client
	transfer *http.Client
}

// NewClient は新しいGitLabクライアントを作成します
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:  baseURL,
		token:    token,
		client:   &http.Client{Timeout: shortTimeout},
		transfer: &http.Client{Timeout: longTimeout},
	}
}

// apiURL はAPIエンドポイントの完全なURLを組み立てます
func (c *Client) apiURL(path string, params url.Values) string {
	u := fmt.Sprintf("%s/api/v4/%s", c.baseURL, path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// newRequest は認証ヘッダー付きのリクエストを作成します
func (c *Client) newRequest(method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", c.token)
	return req, nil
}

// Get はGETリクエストを送信します
// 404の場合は(nil, nil)を返し、呼び出し側が「存在しない」として扱います
func (c *Client) Get(path string, params url.Values) (json.RawMessage, error) {
	req, err := c.newRequest(http.MethodGet, c.apiURL(path, params), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("レスポンス読み取りエラー: %w", err)
		}
		return body, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, newAPIError(resp)
	}
}

// GetAll はページネーションしながら全件を取得します
// 単一オブジェクトの応答は1件のリストとして扱い、それ以上ページを進めません
func (c *Client) GetAll(path string, params url.Values) ([]json.RawMessage, error) {
	var items []json.RawMessage

	for page := 1; ; page++ {
		q := url.Values{}
		for key, values := range params {
			q[key] = values
		}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))

		payload, err := c.Get(path, q)
		if err != nil {
			return nil, err
		}

		trimmed := bytes.TrimSpace(payload)
		if len(trimmed) == 0 || string(trimmed) == "null" {
			break
		}

		if trimmed[0] == '{' {
			items = append(items, payload)
			break
		}

		var pageItems []json.RawMessage
		if err := json.Unmarshal(trimmed, &pageItems); err != nil {
			return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
		}
		if len(pageItems) == 0 {
			break
		}
		items = append(items, pageItems...)
	}

	return items, nil
}

// Post はJSONボディ付きのPOSTリクエストを送信します
// 202などボディなしの成功応答ではnilを返します
func (c *Client) Post(path string, payload interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("JSONエンコードエラー: %w", err)
		}
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := c.newRequest(http.MethodPost, c.apiURL(path, nil), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("レスポンス読み取りエラー: %w", err)
		}
		if len(respBody) == 0 {
			return nil, nil
		}
		return respBody, nil
	default:
		return nil, newAPIError(resp)
	}
}

// PostMultipart はファイル付きのmultipartフォームをPOSTします
// アーカイブ全体をメモリに載せないよう、パイプ経由でストリーミングします
func (c *Client) PostMultipart(path string, fields map[string]string, fileField, fileName string, file io.Reader) (json.RawMessage, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		var err error
		defer func() { pw.CloseWithError(err) }()

		for key, value := range fields {
			if err = writer.WriteField(key, value); err != nil {
				return
			}
		}

		var part io.Writer
		if part, err = writer.CreateFormFile(fileField, fileName); err != nil {
			return
		}
		if _, err = io.Copy(part, file); err != nil {
			return
		}
		err = writer.Close()
	}()

	req, err := c.newRequest(http.MethodPost, c.apiURL(path, nil), pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.transfer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("レスポンス読み取りエラー: %w", err)
		}
		return respBody, nil
	default:
		return nil, newAPIError(resp)
	}
}

// Put はJSONボディ付きのPUTリクエストを送信します
func (c *Client) Put(path string, payload interface{}) (json.RawMessage, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("JSONエンコードエラー: %w", err)
	}

	req, err := c.newRequest(http.MethodPut, c.apiURL(path, nil), bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("レスポンス読み取りエラー: %w", err)
		}
		return respBody, nil
	default:
		return nil, newAPIError(resp)
	}
}

// Download はレスポンスボディを固定サイズのチャンクで書き込み先にストリーミングします
func (c *Client) Download(path string, w io.Writer) error {
	req, err := c.newRequest(http.MethodGet, c.apiURL(path, nil), nil)
	if err != nil {
		return err
	}

	resp, err := c.transfer.Do(req)
	if err != nil {
		return fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}

	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(w, resp.Body, buf); err != nil {
		return fmt.Errorf("ダウンロード書き込みエラー: %w", err)
	}
	return nil
}

// getInto はGETの結果を指定の構造体にデコードします
// 404の場合は(false, nil)を返します
func (c *Client) getInto(path string, params url.Values, v interface{}) (bool, error) {
	payload, err := c.Get(path, params)
	if err != nil {
		return false, err
	}
	if payload == nil {
		return false, nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("レスポンス解析エラー: %w", err)
	}
	return true, nil
}

// newAPIError は失敗応答からAPIErrorを組み立てます
func newAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
