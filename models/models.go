package models

import "strings"

// Group はGitLabのグループ（名前空間）を表します
type Group struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	FullPath string `json:"full_path"`
	ParentID int    `json:"parent_id"`
}

// Project はGitLabのプロジェクトを表します
type Project struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Path              string `json:"path"`
	PathWithNamespace string `json:"path_with_namespace"`
	DefaultBranch     string `json:"default_branch"`
	WebURL            string `json:"web_url"`
}

// ExportStatus はプロジェクトエクスポートの状態を表します
// APIのバージョンによってキー名が異なるため両方を保持します
type ExportStatus struct {
	ExportStatus string `json:"export_status"`
	Status       string `json:"status"`
}

// Value はエクスポート状態の実効値を返します
func (s *ExportStatus) Value() string {
	if s.ExportStatus != "" {
		return s.ExportStatus
	}
	return s.Status
}

// ImportStatus はプロジェクトインポートの状態を表します
type ImportStatus struct {
	ImportStatus string `json:"import_status"`
	Status       string `json:"status"`
	ImportError  string `json:"import_error"`
}

// Value はインポート状態の実効値を返します
func (s *ImportStatus) Value() string {
	if s.ImportStatus != "" {
		return s.ImportStatus
	}
	return s.Status
}

// Issue はGitLabのイシューを表します
// CreatedAtはマッチングにそのまま使うため文字列のまま保持します
type Issue struct {
	IID       int    `json:"iid"`
	ProjectID int    `json:"project_id"`
	Title     string `json:"title"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	WebURL    string `json:"web_url"`
}

// Note はイシューに付くコメントを表します
type Note struct {
	ID   int    `json:"id"`
	Body string `json:"body"`
}

// RepositoryFile はリポジトリ内の1ファイルを表します（contentはbase64）
type RepositoryFile struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Ref      string `json:"ref"`
}

// ParseProjectPath は移行対象のパスをセグメントに分解します
// 末尾の.gitサフィックスは取り除き、空のセグメントは無視します
func ParseProjectPath(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ".git")

	var parts []string
	for _, part := range strings.Split(raw, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// MigrationTarget は移行先の配置（グループ階層とプロジェクト名）を表します
type MigrationTarget struct {
	GroupParts  []string
	ProjectName string
	FullPath    string
}

// NewMigrationTarget は移行先ルートグループとソースのセグメントから配置を計算します
func NewMigrationTarget(destRoot string, parts []string) MigrationTarget {
	destParts := append([]string{destRoot}, parts...)
	return MigrationTarget{
		GroupParts:  destParts[:len(destParts)-1],
		ProjectName: destParts[len(destParts)-1],
		FullPath:    strings.Join(destParts, "/"),
	}
}

// NamespacePath は移行先グループ階層のフルパスを返します
func (t MigrationTarget) NamespacePath() string {
	return strings.Join(t.GroupParts, "/")
}
