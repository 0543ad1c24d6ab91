package services

import "fmt"

// TransferFailedError はエクスポート/インポートが失敗状態で終わったことを表します
type TransferFailedError struct {
	ProjectID int
	Phase     string
	Detail    string
}

// Error はエラーメッセージを返します
func (e *TransferFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("プロジェクト %d の%sに失敗しました: %s", e.ProjectID, e.Phase, e.Detail)
	}
	return fmt.Sprintf("プロジェクト %d の%sに失敗しました", e.ProjectID, e.Phase)
}

// TransferTimeoutError はエクスポート/インポートが期限内に完了しなかったことを表します
type TransferTimeoutError struct {
	ProjectID int
	Phase     string
}

// Error はエラーメッセージを返します
func (e *TransferTimeoutError) Error() string {
	return fmt.Sprintf("プロジェクト %d の%sがタイムアウトしました", e.ProjectID, e.Phase)
}

// IdentityResolutionError はインポート後に移行先プロジェクトを特定できなかったことを表します
type IdentityResolutionError struct {
	FullPath string
}

// Error はエラーメッセージを返します
func (e *IdentityResolutionError) Error() string {
	return fmt.Sprintf("インポート後に移行先プロジェクトを特定できませんでした: %s", e.FullPath)
}
