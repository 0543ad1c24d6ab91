package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"gitlabmigrate/models"
)

// CheckAuth はAPIトークンの認証をチェックします
func (c *Client) CheckAuth() error {
	payload, err := c.Get("user", nil)
	if err != nil {
		return err
	}
	if payload == nil {
		return fmt.Errorf("認証確認に失敗しました: ユーザー情報が取得できません")
	}
	return nil
}

// GetGroup はフルパスでグループを検索します（存在しない場合はnil）
func (c *Client) GetGroup(fullPath string) (*models.Group, error) {
	var group models.Group
	found, err := c.getInto("groups/"+url.PathEscape(fullPath), nil, &group)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &group, nil
}

// CreateGroup は新しいグループを作成します
// parentIDが0の場合はトップレベルグループとして作成します
func (c *Client) CreateGroup(name, path string, parentID int) (*models.Group, error) {
	payload := map[string]interface{}{
		"name": name,
		"path": path,
	}
	if parentID > 0 {
		payload["parent_id"] = parentID
	}

	respBody, err := c.Post("groups", payload)
	if err != nil {
		return nil, err
	}

	var group models.Group
	if err := json.Unmarshal(respBody, &group); err != nil {
		return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
	}
	return &group, nil
}

// GetProject はパスまたはIDでプロジェクトを検索します（存在しない場合はnil）
func (c *Client) GetProject(pathOrID string) (*models.Project, error) {
	var project models.Project
	found, err := c.getInto("projects/"+url.PathEscape(pathOrID), nil, &project)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &project, nil
}

// TriggerExport はプロジェクトのエクスポートを開始します
func (c *Client) TriggerExport(projectID int) error {
	_, err := c.Post(fmt.Sprintf("projects/%d/export", projectID), nil)
	return err
}

// GetExportStatus はエクスポートの状態を取得します（未開始の場合はnil）
func (c *Client) GetExportStatus(projectID int) (*models.ExportStatus, error) {
	var status models.ExportStatus
	found, err := c.getInto(fmt.Sprintf("projects/%d/export", projectID), nil, &status)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &status, nil
}

// DownloadExport はエクスポートアーカイブをストリーミングで書き込みます
func (c *Client) DownloadExport(projectID int, w io.Writer) error {
	return c.Download(fmt.Sprintf("projects/%d/export/download", projectID), w)
}

// ImportProject はアーカイブをアップロードしてプロジェクトをインポートします
func (c *Client) ImportProject(file io.Reader, fileName, namespacePath, projectPath, projectName string) (*models.Project, error) {
	fields := map[string]string{
		"path":           projectPath,
		"name":           projectName,
		"namespace_path": namespacePath,
	}

	respBody, err := c.PostMultipart("projects/import", fields, "file", fileName, file)
	if err != nil {
		return nil, err
	}
	if len(respBody) == 0 {
		return nil, nil
	}

	var project models.Project
	if err := json.Unmarshal(respBody, &project); err != nil {
		return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
	}
	return &project, nil
}

// GetImportStatus はインポートの状態を取得します（未開始の場合はnil）
func (c *Client) GetImportStatus(projectID int) (*models.ImportStatus, error) {
	var status models.ImportStatus
	found, err := c.getInto(fmt.Sprintf("projects/%d/import", projectID), nil, &status)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &status, nil
}

// GetRepositoryFile はリポジトリ内のファイルを取得します（存在しない場合はnil）
func (c *Client) GetRepositoryFile(projectID int, filePath, ref string) (*models.RepositoryFile, error) {
	params := url.Values{}
	params.Set("ref", ref)

	var file models.RepositoryFile
	found, err := c.getInto(
		fmt.Sprintf("projects/%d/repository/files/%s", projectID, url.PathEscape(filePath)),
		params, &file)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &file, nil
}

// UpdateRepositoryFile はリポジトリ内のファイルを更新（コミット）します
func (c *Client) UpdateRepositoryFile(projectID int, filePath, branch, content, commitMessage string) error {
	payload := map[string]string{
		"branch":         branch,
		"content":        content,
		"commit_message": commitMessage,
	}
	_, err := c.Put(
		fmt.Sprintf("projects/%d/repository/files/%s", projectID, url.PathEscape(filePath)),
		payload)
	return err
}

// ListIssues は全状態のイシューを内部ID昇順で全件取得します
func (c *Client) ListIssues(projectID int) ([]models.Issue, error) {
	params := url.Values{}
	params.Set("state", "all")
	params.Set("order_by", "iid")
	params.Set("sort", "asc")

	items, err := c.GetAll(fmt.Sprintf("projects/%d/issues", projectID), params)
	if err != nil {
		return nil, err
	}

	issues := make([]models.Issue, 0, len(items))
	for _, item := range items {
		var issue models.Issue
		if err := json.Unmarshal(item, &issue); err != nil {
			return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// ListIssueNotes はイシューのコメントを作成日時昇順で全件取得します
func (c *Client) ListIssueNotes(projectID, issueIID int) ([]models.Note, error) {
	params := url.Values{}
	params.Set("order_by", "created_at")
	params.Set("sort", "asc")

	items, err := c.GetAll(fmt.Sprintf("projects/%d/issues/%d/notes", projectID, issueIID), params)
	if err != nil {
		return nil, err
	}

	notes := make([]models.Note, 0, len(items))
	for _, item := range items {
		var note models.Note
		if err := json.Unmarshal(item, &note); err != nil {
			return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// CreateIssueNote はイシューにコメントを追加します
func (c *Client) CreateIssueNote(projectID, issueIID int, body string) error {
	_, err := c.Post(
		fmt.Sprintf("projects/%d/issues/%d/notes", projectID, issueIID),
		map[string]string{"body": body})
	return err
}

// CloseIssue はイシューをクローズ状態に更新します
func (c *Client) CloseIssue(projectID, issueIID int) error {
	_, err := c.Put(
		fmt.Sprintf("projects/%d/issues/%d", projectID, issueIID),
		map[string]string{"state_event": "close"})
	return err
}

// ProjectIDRef はプロジェクトIDをGetProjectで使えるパス引数に変換します
func ProjectIDRef(projectID int) string {
	return strconv.Itoa(projectID)
}
