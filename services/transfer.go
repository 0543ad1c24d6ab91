package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"

	"gitlabmigrate/api"
	"gitlabmigrate/config"
	"gitlabmigrate/models"
	"gitlabmigrate/utils"
)

// 転送ジョブの終端状態
const (
	statusFinished = "finished"
	statusFailed   = "failed"
)

// errNotFinished はポーリング継続を示す内部エラーです
var errNotFinished = errors.New("転送がまだ完了していません")

// TransferService はエクスポート→インポートの非同期転送プロトコルを駆動します
type TransferService struct {
	ce  *api.Client
	ee  *api.Client
	cfg *config.Config
}

// NewTransferService は新しい転送サービスを作成します
func NewTransferService(cfg *config.Config, ce, ee *api.Client) *TransferService {
	return &TransferService{
		ce:  ce,
		ee:  ee,
		cfg: cfg,
	}
}

// Export はソース側でエクスポートを開始し、完了までポーリングします
func (t *TransferService) Export(projectID int) error {
	if err := t.ce.TriggerExport(projectID); err != nil {
		return fmt.Errorf("エクスポート開始エラー: %w", err)
	}

	return t.poll(projectID, "エクスポート", func() (string, string, error) {
		status, err := t.ce.GetExportStatus(projectID)
		if err != nil {
			return "", "", err
		}
		if status == nil {
			// ステータス未取得は「まだ準備中」として扱う
			return "", "", nil
		}
		return status.Value(), "", nil
	})
}

// Download は完了したエクスポートのアーカイブをローカルファイルに保存します
func (t *TransferService) Download(projectID int, destPath string) error {
	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("アーカイブファイル作成エラー: %w", err)
	}
	defer file.Close()

	if err := t.ce.DownloadExport(projectID, file); err != nil {
		return fmt.Errorf("アーカイブダウンロードエラー: %w", err)
	}
	return nil
}

// Import はアーカイブを移行先にアップロードしてインポートを開始します
func (t *TransferService) Import(archivePath, namespacePath, projectPath, projectName string) (*models.Project, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("アーカイブファイルオープンエラー: %w", err)
	}
	defer file.Close()

	project, err := t.ee.ImportProject(file, filepath.Base(archivePath), namespacePath, projectPath, projectName)
	if err != nil {
		return nil, fmt.Errorf("インポート開始エラー: %w", err)
	}
	return project, nil
}

// WaitForImport は移行先のインポート完了までポーリングします
func (t *TransferService) WaitForImport(projectID int) error {
	return t.poll(projectID, "インポート", func() (string, string, error) {
		status, err := t.ee.GetImportStatus(projectID)
		if err != nil {
			return "", "", err
		}
		if status == nil {
			return "", "", nil
		}
		return status.Value(), status.ImportError, nil
	})
}

// poll は状態取得関数を一定間隔で呼び出し、終端状態か期限切れまで待機します
func (t *TransferService) poll(projectID int, phase string, fetch func() (string, string, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.PollTimeout)
	defer cancel()

	ticker := backoff.WithContext(backoff.NewConstantBackOff(t.cfg.PollInterval), ctx)

	operation := func() error {
		status, detail, err := fetch()
		if err != nil {
			return backoff.Permanent(err)
		}

		switch status {
		case statusFinished:
			return nil
		case statusFailed:
			return backoff.Permanent(&TransferFailedError{
				ProjectID: projectID,
				Phase:     phase,
				Detail:    detail,
			})
		default:
			utils.LogDebug("プロジェクト %d の%s状態: %q", projectID, phase, status)
			return errNotFinished
		}
	}

	err := backoff.Retry(operation, ticker)
	if err == nil {
		return nil
	}
	if errors.Is(err, errNotFinished) || errors.Is(err, context.DeadlineExceeded) {
		return &TransferTimeoutError{ProjectID: projectID, Phase: phase}
	}
	return err
}
