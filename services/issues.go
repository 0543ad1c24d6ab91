package services

import (
	"fmt"
	"strings"

	"gitlabmigrate/api"
	"gitlabmigrate/models"
	"gitlabmigrate/utils"
)

// 移行ノートの正規テキストのプレフィックス
const migrationNotePrefix = "Migrated to EE: "

// ソース側でオープン状態を示すリテラル
const stateOpened = "opened"

// titleCreatedKey は内部IDが一致しない場合のフォールバックキーです
type titleCreatedKey struct {
	Title     string
	CreatedAt string
}

// IssueReconciler はソースと移行先のイシューを突き合わせます
type IssueReconciler struct {
	ce *api.Client
	ee *api.Client
}

// NewIssueReconciler は新しいイシュー照合サービスを作成します
func NewIssueReconciler(ce, ee *api.Client) *IssueReconciler {
	return &IssueReconciler{
		ce: ce,
		ee: ee,
	}
}

// Reconcile はソースのオープンなイシューを移行先への参照付きでクローズします
// 移行先のイシューには一切手を加えません
func (r *IssueReconciler) Reconcile(ceProject, eeProject *models.Project) error {
	ceIssues, err := r.ce.ListIssues(ceProject.ID)
	if err != nil {
		return fmt.Errorf("CEイシュー取得エラー: %w", err)
	}
	eeIssues, err := r.ee.ListIssues(eeProject.ID)
	if err != nil {
		return fmt.Errorf("EEイシュー取得エラー: %w", err)
	}

	if len(ceIssues) != len(eeIssues) {
		utils.LogWarn("イシュー数が一致しません CE=%d EE=%d (%s)",
			len(ceIssues), len(eeIssues), eeProject.PathWithNamespace)
	}

	byIID, byTitleCreated := buildIssueMaps(eeIssues)

	for _, ceIssue := range ceIssues {
		eeIssue, ok := byIID[ceIssue.IID]
		if !ok {
			eeIssue, ok = byTitleCreated[titleCreatedKey{Title: ceIssue.Title, CreatedAt: ceIssue.CreatedAt}]
		}
		if !ok {
			utils.LogWarn("CEイシュー IID %d に対応するEEイシューが見つかりません", ceIssue.IID)
			continue
		}

		if ceIssue.State != stateOpened || eeIssue.WebURL == "" {
			continue
		}

		if err := r.closeWithLink(ceProject.ID, ceIssue.IID, eeIssue.WebURL); err != nil {
			return err
		}
		utils.LogInfo("CEイシュー %d をEEイシューへのリンク付きでクローズしました", ceIssue.IID)
	}

	return nil
}

// buildIssueMaps は移行先イシューの検索用マップを構築します
func buildIssueMaps(eeIssues []models.Issue) (map[int]models.Issue, map[titleCreatedKey]models.Issue) {
	byIID := make(map[int]models.Issue)
	byTitleCreated := make(map[titleCreatedKey]models.Issue)

	for _, issue := range eeIssues {
		if issue.IID != 0 {
			byIID[issue.IID] = issue
		}
		if issue.Title != "" && issue.CreatedAt != "" {
			byTitleCreated[titleCreatedKey{Title: issue.Title, CreatedAt: issue.CreatedAt}] = issue
		}
	}

	return byIID, byTitleCreated
}

// closeWithLink は移行ノートを（まだ無ければ）追加してからイシューをクローズします
func (r *IssueReconciler) closeWithLink(ceProjectID, ceIID int, eeIssueURL string) error {
	notes, err := r.ce.ListIssueNotes(ceProjectID, ceIID)
	if err != nil {
		return fmt.Errorf("CEイシューのコメント取得エラー: %w", err)
	}

	noteBody := migrationNotePrefix + eeIssueURL
	if !hasMigrationNote(notes, noteBody) {
		if err := r.ce.CreateIssueNote(ceProjectID, ceIID, noteBody); err != nil {
			return fmt.Errorf("移行ノート追加エラー: %w", err)
		}
	}

	if err := r.ce.CloseIssue(ceProjectID, ceIID); err != nil {
		return fmt.Errorf("イシュークローズエラー: %w", err)
	}
	return nil
}

// hasMigrationNote は正規テキストと完全一致する移行ノートが既にあるかを調べます
func hasMigrationNote(notes []models.Note, noteBody string) bool {
	for _, note := range notes {
		if strings.TrimSpace(note.Body) == noteBody {
			return true
		}
	}
	return false
}
