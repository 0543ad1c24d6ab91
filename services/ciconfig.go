package services

import (
	"encoding/base64"
	"fmt"
	"strings"

	"gitlabmigrate/api"
	"gitlabmigrate/models"
	"gitlabmigrate/utils"
)

const (
	// 書き換え対象のCI設定ファイル
	ciFilePath = ".gitlab-ci.yml"
	// includeブロック内で書き換えるパス断片
	infraFragment = "infra/"
	// ブランチが取得できない場合のフォールバック
	defaultBranchFallback = "main"
)

// RewriteIncludePaths はinclude:ブロック内のinfra/参照にプレフィックスを付与します
// ブロック外の出現と、既にプレフィックス付きの出現には手を付けません
func RewriteIncludePaths(text, prefix string) string {
	// includeもinfra/も含まないテキストは何もしない
	if !strings.Contains(text, "include") || !strings.Contains(text, infraFragment) {
		return text
	}

	trailingNewline := strings.HasSuffix(text, "\n")
	body := strings.TrimSuffix(text, "\n")
	lines := strings.Split(body, "\n")

	inInclude := false
	includeIndent := 0

	for i, line := range lines {
		stripped := strings.TrimLeft(line, " \t")
		indent := len(line) - len(stripped)

		if strings.HasPrefix(stripped, "include:") {
			inInclude = true
			includeIndent = indent
			lines[i] = prefixFragment(line, prefix)
			continue
		}

		if inInclude {
			// 空行以外でインデントがinclude:以下に戻ったらブロック終了
			if stripped != "" && indent <= includeIndent {
				inInclude = false
			} else {
				lines[i] = prefixFragment(line, prefix)
			}
		}
	}

	result := strings.Join(lines, "\n")
	if trailingNewline {
		result += "\n"
	}
	return result
}

// prefixFragment は1行の中のinfra/出現にプレフィックスを付与します
// 直前に既にプレフィックスが付いている出現はそのまま残します
func prefixFragment(line, prefix string) string {
	if !strings.Contains(line, infraFragment) {
		return line
	}

	var b strings.Builder
	pos := 0
	for {
		idx := strings.Index(line[pos:], infraFragment)
		if idx < 0 {
			b.WriteString(line[pos:])
			break
		}
		idx += pos

		end := idx + len(infraFragment)
		if idx >= len(prefix) && line[idx-len(prefix):idx] == prefix {
			b.WriteString(line[pos:end])
		} else {
			b.WriteString(line[pos:idx])
			b.WriteString(prefix)
			b.WriteString(infraFragment)
		}
		pos = end
	}
	return b.String()
}

// CIRewriter は移行先プロジェクトのCI設定ファイルを書き換えます
type CIRewriter struct {
	ee     *api.Client
	prefix string
}

// NewCIRewriter は新しいCI設定書き換えサービスを作成します
func NewCIRewriter(ee *api.Client, prefix string) *CIRewriter {
	return &CIRewriter{
		ee:     ee,
		prefix: prefix,
	}
}

// UpdateProjectCI はプロジェクトのCI設定ファイルを取得・書き換え・コミットします
// ファイルが存在しない場合は何もしません
func (r *CIRewriter) UpdateProjectCI(project *models.Project) error {
	branch := project.DefaultBranch
	if branch == "" {
		branch = defaultBranchFallback
	}

	file, err := r.ee.GetRepositoryFile(project.ID, ciFilePath, branch)
	if err != nil {
		return fmt.Errorf("%s 取得エラー: %w", ciFilePath, err)
	}
	if file == nil {
		return nil
	}

	// APIのcontentは改行入りのbase64で返ることがある
	encoded := strings.ReplaceAll(file.Content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%s のデコードに失敗しました: %w", ciFilePath, err)
	}

	original := string(decoded)
	updated := RewriteIncludePaths(original, r.prefix)
	if updated == original {
		utils.LogInfo("%s のinclude更新は不要です", ciFilePath)
		return nil
	}

	message := fmt.Sprintf("Update %s include paths", ciFilePath)
	if err := r.ee.UpdateRepositoryFile(project.ID, ciFilePath, branch, updated, message); err != nil {
		return fmt.Errorf("%s 更新エラー: %w", ciFilePath, err)
	}

	utils.LogInfo("%s のincludeパスを更新しました", ciFilePath)
	return nil
}
