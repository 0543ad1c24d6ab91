package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsNilOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	payload, err := client.Get("projects/missing", nil)
	require.NoError(t, err)

	// 404はエラーではなく「存在しない」
	assert.Nil(t, payload)
}

func TestGetSendsTokenHeader(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		fmt.Fprint(w, `{"id":1}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token")
	_, err := client.Get("user", nil)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", gotToken)
}

func TestGetErrorCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"boom"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	_, err := client.Get("projects/1", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "boom")
}

func TestGetAllPaginates(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		switch page {
		case 1:
			fmt.Fprint(w, `[{"id":1},{"id":2}]`)
		case 2:
			fmt.Fprint(w, `[{"id":3}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	items, err := client.GetAll("projects/1/issues", nil)
	require.NoError(t, err)

	assert.Len(t, items, 3)
	assert.Equal(t, 3, requests)
}

func TestGetAllCollapsesSingleObject(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"id":7}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	items, err := client.GetAll("projects/7", nil)
	require.NoError(t, err)

	// 単一オブジェクトは1件のリストとして扱い、ページも進めない
	require.Len(t, items, 1)
	assert.Equal(t, 1, requests)
}

func TestGetAllStopsOnAbsentPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	items, err := client.GetAll("projects/1/issues", nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPostAcceptedWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	payload, err := client.Post("projects/1/export", nil)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestPostSendsJSONBody(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	_, err := client.Post("groups", map[string]string{"name": "teamA"})
	require.NoError(t, err)
	assert.Equal(t, "teamA", got["name"])
}

func TestPutRejectsUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"forbidden"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	_, err := client.Put("projects/1/issues/1", map[string]string{"state_event": "close"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestDownloadStreamsBody(t *testing.T) {
	content := bytes.Repeat([]byte("archive-data"), 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	var buf bytes.Buffer
	require.NoError(t, client.Download("projects/1/export/download", &buf))
	assert.Equal(t, content, buf.Bytes())
}

func TestPostMultipartStreamsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "proj1", r.FormValue("path"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "proj1-export.tar.gz", header.Filename)

		var buf bytes.Buffer
		_, err = buf.ReadFrom(file)
		require.NoError(t, err)
		assert.Equal(t, "tar-gz-bytes", buf.String())

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":42}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	payload, err := client.PostMultipart(
		"projects/import",
		map[string]string{"path": "proj1"},
		"file", "proj1-export.tar.gz",
		bytes.NewBufferString("tar-gz-bytes"))
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"id":42`)
}

func TestIsConflict(t *testing.T) {
	conflict := &APIError{StatusCode: http.StatusConflict}
	badRequest := &APIError{StatusCode: http.StatusBadRequest}
	fatal := &APIError{StatusCode: http.StatusInternalServerError}

	assert.True(t, IsConflict(conflict))
	assert.True(t, IsConflict(badRequest))
	assert.False(t, IsConflict(fatal))

	// ラップされていても判定できる
	assert.True(t, IsConflict(fmt.Errorf("グループ作成エラー: %w", conflict)))
	assert.False(t, IsConflict(errors.New("その他のエラー")))
}
