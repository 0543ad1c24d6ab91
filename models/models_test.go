package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProjectPath(t *testing.T) {
	// 末尾の.gitは取り除く
	assert.Equal(t, []string{"teamA", "proj1"}, ParseProjectPath("teamA/proj1.git"))

	// 空のセグメントは無視する
	assert.Equal(t, []string{"teamA", "proj1"}, ParseProjectPath("/teamA//proj1/"))

	// 前後の空白は無視する
	assert.Equal(t, []string{"teamA", "proj1"}, ParseProjectPath("  teamA/proj1  "))

	// 空のレコードはエラーではなくスキップ対象
	assert.Nil(t, ParseProjectPath(""))
	assert.Nil(t, ParseProjectPath("   "))
	assert.Nil(t, ParseProjectPath("///"))
}

func TestNewMigrationTarget(t *testing.T) {
	target := NewMigrationTarget("archive", []string{"teamA", "proj1"})

	assert.Equal(t, []string{"archive", "teamA"}, target.GroupParts)
	assert.Equal(t, "proj1", target.ProjectName)
	assert.Equal(t, "archive/teamA/proj1", target.FullPath)
	assert.Equal(t, "archive/teamA", target.NamespacePath())
}

func TestNewMigrationTargetSingleSegment(t *testing.T) {
	target := NewMigrationTarget("archive", []string{"proj1"})

	assert.Equal(t, []string{"archive"}, target.GroupParts)
	assert.Equal(t, "proj1", target.ProjectName)
	assert.Equal(t, "archive/proj1", target.FullPath)
}

func TestExportStatusValue(t *testing.T) {
	// export_statusキーを優先する
	s := ExportStatus{ExportStatus: "finished", Status: "started"}
	assert.Equal(t, "finished", s.Value())

	// export_statusが無ければstatusにフォールバック
	s = ExportStatus{Status: "started"}
	assert.Equal(t, "started", s.Value())
}

func TestImportStatusValue(t *testing.T) {
	s := ImportStatus{ImportStatus: "failed", ImportError: "boom"}
	assert.Equal(t, "failed", s.Value())

	s = ImportStatus{Status: "started"}
	assert.Equal(t, "started", s.Value())
}
