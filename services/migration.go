package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gitlabmigrate/api"
	"gitlabmigrate/config"
	"gitlabmigrate/models"
	"gitlabmigrate/utils"
)

// MigrationService はCEからEEへのプロジェクト移行全体を処理します
type MigrationService struct {
	config     *config.Config
	ce         *api.Client
	ee         *api.Client
	groups     *GroupEnsurer
	transfer   *TransferService
	rewriter   *CIRewriter
	reconciler *IssueReconciler
}

// NewMigrationService は新しい移行サービスを作成します
func NewMigrationService(cfg *config.Config, ce, ee *api.Client) *MigrationService {
	return &MigrationService{
		config:     cfg,
		ce:         ce,
		ee:         ee,
		groups:     NewGroupEnsurer(ee),
		transfer:   NewTransferService(cfg, ce, ee),
		rewriter:   NewCIRewriter(ee, cfg.IncludePrefix),
		reconciler: NewIssueReconciler(ce, ee),
	}
}

// MigrateProject は1プロジェクトの移行を実行します
// 既に移行済みの場合は転送をスキップし、CI書き換えとイシュー照合のみ行います
func (m *MigrationService) MigrateProject(rawPath string) error {
	parts := models.ParseProjectPath(rawPath)
	if len(parts) == 0 {
		return nil
	}

	target := models.NewMigrationTarget(m.config.DestRootGroup, parts)

	if _, err := m.groups.EnsurePath(target.GroupParts); err != nil {
		return err
	}

	sourcePath := strings.Join(parts, "/")
	ceProject, err := m.ce.GetProject(sourcePath)
	if err != nil {
		return fmt.Errorf("CEプロジェクト取得エラー: %w", err)
	}
	if ceProject == nil {
		return fmt.Errorf("CEプロジェクトが見つかりません: %s", sourcePath)
	}

	eeProject, err := m.ee.GetProject(target.FullPath)
	if err != nil {
		return fmt.Errorf("EEプロジェクト取得エラー: %w", err)
	}
	if eeProject != nil {
		utils.LogInfo("プロジェクトは既にEEに存在します: %s", target.FullPath)
		return m.finalize(ceProject, eeProject)
	}

	eeProject, err = m.transferProject(ceProject, target)
	if err != nil {
		return err
	}

	return m.finalize(ceProject, eeProject)
}

// transferProject はエクスポート→インポートの転送を実行し移行先プロジェクトを返します
func (m *MigrationService) transferProject(ceProject *models.Project, target models.MigrationTarget) (*models.Project, error) {
	utils.LogInfo("CEからプロジェクトをエクスポートします: %s", ceProject.PathWithNamespace)
	if err := m.transfer.Export(ceProject.ID); err != nil {
		return nil, err
	}

	// アーカイブの一時ディレクトリは成否にかかわらず必ず削除する
	tmpDir, err := os.MkdirTemp("", "gitlab-export-")
	if err != nil {
		return nil, fmt.Errorf("一時ディレクトリ作成エラー: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	archivePath := filepath.Join(tmpDir, target.ProjectName+"-export.tar.gz")
	if err := m.transfer.Download(ceProject.ID, archivePath); err != nil {
		return nil, err
	}

	utils.LogInfo("EEにプロジェクトをインポートします: %s", target.FullPath)
	imported, err := m.transfer.Import(archivePath, target.NamespacePath(), target.ProjectName, target.ProjectName)
	if err != nil {
		return nil, err
	}

	// インポート応答のIDを優先し、無ければフルパスで再解決する
	eeProjectID := 0
	if imported != nil {
		eeProjectID = imported.ID
	}
	if eeProjectID == 0 {
		eeProject, err := m.ee.GetProject(target.FullPath)
		if err != nil {
			return nil, fmt.Errorf("EEプロジェクト取得エラー: %w", err)
		}
		if eeProject == nil {
			return nil, &IdentityResolutionError{FullPath: target.FullPath}
		}
		eeProjectID = eeProject.ID
	}

	if err := m.transfer.WaitForImport(eeProjectID); err != nil {
		return nil, err
	}

	eeProject, err := m.ee.GetProject(api.ProjectIDRef(eeProjectID))
	if err != nil {
		return nil, fmt.Errorf("EEプロジェクト取得エラー: %w", err)
	}
	if eeProject == nil {
		return nil, &IdentityResolutionError{FullPath: target.FullPath}
	}

	return eeProject, nil
}

// finalize は移行先プロジェクトに対する後処理（CI書き換えとイシュー照合）を実行します
func (m *MigrationService) finalize(ceProject, eeProject *models.Project) error {
	if err := m.rewriter.UpdateProjectCI(eeProject); err != nil {
		return err
	}
	return m.reconciler.Reconcile(ceProject, eeProject)
}

// Run は移行対象リストを順番に処理します
// 1プロジェクトの失敗はログに記録してバッチ全体は継続します
func (m *MigrationService) Run(paths []string) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "移行処理全体")

	for _, path := range paths {
		if err := m.MigrateProject(path); err != nil {
			utils.LogError("%s の移行に失敗しました: %v", path, err)
		}
	}
}

// LoadProjectList は移行対象プロジェクトのリストファイルを読み込みます
// 空行と#で始まるコメント行は無視します
func LoadProjectList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("リストファイル読み込みエラー: %w", err)
	}

	var repos []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		repos = append(repos, line)
	}

	if len(repos) == 0 {
		return nil, fmt.Errorf("リストファイルに移行対象がありません: %s", path)
	}

	return repos, nil
}
