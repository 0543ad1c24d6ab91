package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// デフォルトのincludeパス書き換えプレフィックス
const defaultIncludePrefix = "viridien/"

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// GitLab API設定
	CEURL   string
	EEURL   string
	CEToken string
	EEToken string

	// 移行対象の設定
	ProjectsFile  string
	DestRootGroup string
	IncludePrefix string

	// エクスポート/インポートのポーリング設定
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// LoadConfig は環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込む
	_ = godotenv.Load()

	config := &Config{
		CEURL:         normalizeBaseURL(os.Getenv("GITLAB_CE_URL")),
		EEURL:         normalizeBaseURL(os.Getenv("GITLAB_EE_URL")),
		CEToken:       os.Getenv("GITLAB_CE_TOKEN"),
		EEToken:       os.Getenv("GITLAB_EE_TOKEN"),
		ProjectsFile:  os.Getenv("GITLAB_PROJECTS_FILE"),
		DestRootGroup: strings.Trim(strings.TrimSpace(os.Getenv("GITLAB_DEST_ROOT_GROUP")), "/"),
		IncludePrefix: normalizeIncludePrefix(os.Getenv("GITLAB_INCLUDE_PREFIX")),
		PollInterval:  5 * time.Second,
		PollTimeout:   time.Duration(getEnvAsIntWithDefault("GITLAB_MAX_POLL_MINUTES", 60)) * time.Minute,
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate は必須の設定値がすべて揃っているかを確認します
func (c *Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"GITLAB_CE_URL", c.CEURL},
		{"GITLAB_EE_URL", c.EEURL},
		{"GITLAB_CE_TOKEN", c.CEToken},
		{"GITLAB_EE_TOKEN", c.EEToken},
		{"GITLAB_PROJECTS_FILE", c.ProjectsFile},
		{"GITLAB_DEST_ROOT_GROUP", c.DestRootGroup},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}

	return nil
}

// normalizeBaseURL はベースURLをスキーム付き・末尾スラッシュなしに正規化します
func normalizeBaseURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	return strings.TrimRight(url, "/")
}

// normalizeIncludePrefix は書き換えプレフィックスを末尾スラッシュ付きに正規化します
func normalizeIncludePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return defaultIncludePrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// デフォルト値付きで環境変数を整数として取得
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
