package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleCI = `stages:
  - build

include:
  - local: infra/ci/base.yml
  - project: ops/templates
    file: infra/jobs.yml

build:
  script:
    - ./scripts/run.sh infra/bar
`

func TestRewriteScopedToIncludeBlock(t *testing.T) {
	result := RewriteIncludePaths(sampleCI, "teamA/")

	// includeブロック内の出現のみ書き換える
	assert.Contains(t, result, "local: teamA/infra/ci/base.yml")
	assert.Contains(t, result, "file: teamA/infra/jobs.yml")

	// ジョブスクリプト内の出現はそのまま
	assert.Contains(t, result, "./scripts/run.sh infra/bar")
	assert.NotContains(t, result, "teamA/infra/bar")
}

func TestRewriteTriggeringLineItself(t *testing.T) {
	text := "include: infra/ci.yml\n"
	result := RewriteIncludePaths(text, "teamA/")

	// include:行自体も書き換え対象
	assert.Equal(t, "include: teamA/infra/ci.yml\n", result)
}

func TestRewriteBlockEndsAtLowerIndent(t *testing.T) {
	text := `include:
  - local: infra/a.yml
deploy:
  script:
    - cp infra/b.yml /etc/
`
	result := RewriteIncludePaths(text, "teamA/")

	assert.Contains(t, result, "teamA/infra/a.yml")
	// インデントがinclude:以下に戻った後は手を付けない
	assert.Contains(t, result, "cp infra/b.yml /etc/")
	assert.NotContains(t, result, "teamA/infra/b.yml")
}

func TestRewriteBlankLineDoesNotEndBlock(t *testing.T) {
	text := `include:
  - local: infra/a.yml

  - local: infra/b.yml
`
	result := RewriteIncludePaths(text, "teamA/")

	// 空行ではブロックは終わらない
	assert.Contains(t, result, "teamA/infra/a.yml")
	assert.Contains(t, result, "teamA/infra/b.yml")
}

func TestRewriteSkipsAlreadyPrefixed(t *testing.T) {
	text := `include:
  - local: viridien/infra/x.yml
  - local: infra/y.yml
`
	result := RewriteIncludePaths(text, "viridien/")

	// 既にプレフィックス付きの出現はそのまま
	assert.Contains(t, result, "local: viridien/infra/x.yml")
	assert.NotContains(t, result, "viridien/viridien/")
	assert.Contains(t, result, "local: viridien/infra/y.yml")
}

func TestRewriteIdempotent(t *testing.T) {
	inputs := []string{
		sampleCI,
		"include: infra/ci.yml\n",
		"include:\n  - local: viridien/infra/x.yml\n",
		"no includes here\n",
	}
	prefixes := []string{"viridien/", "teamA/"}

	for _, text := range inputs {
		for _, prefix := range prefixes {
			once := RewriteIncludePaths(text, prefix)
			twice := RewriteIncludePaths(once, prefix)
			assert.Equal(t, once, twice, "入力 %q プレフィックス %q", text, prefix)
		}
	}
}

func TestRewritePreservesTrailingNewline(t *testing.T) {
	withNewline := "include:\n  - local: infra/a.yml\n"
	withoutNewline := "include:\n  - local: infra/a.yml"

	assert.Equal(t, "include:\n  - local: teamA/infra/a.yml\n", RewriteIncludePaths(withNewline, "teamA/"))
	assert.Equal(t, "include:\n  - local: teamA/infra/a.yml", RewriteIncludePaths(withoutNewline, "teamA/"))
}

func TestRewriteFastPathLeavesTextUntouched(t *testing.T) {
	// includeを含まないテキスト
	noInclude := "build:\n  script:\n    - make infra/\n"
	assert.Equal(t, noInclude, RewriteIncludePaths(noInclude, "teamA/"))

	// infra/を含まないテキスト
	noFragment := "include:\n  - local: ci/base.yml\n"
	assert.Equal(t, noFragment, RewriteIncludePaths(noFragment, "teamA/"))
}

func TestRewriteKeepsCommentsAndLayout(t *testing.T) {
	text := `# pipeline definition
include:
  # shared templates
  - local: infra/a.yml
`
	result := RewriteIncludePaths(text, "teamA/")

	assert.Contains(t, result, "# pipeline definition")
	assert.Contains(t, result, "  # shared templates")
	assert.Contains(t, result, "teamA/infra/a.yml")
}

func TestRewriteOutputStaysValidYAML(t *testing.T) {
	result := RewriteIncludePaths(sampleCI, "teamA/")

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(result), &doc))
	assert.Contains(t, doc, "include")
	assert.Contains(t, doc, "build")
}
