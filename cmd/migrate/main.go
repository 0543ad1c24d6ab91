package main

import (
	"flag"
	"fmt"
	"os"

	"gitlabmigrate/api"
	"gitlabmigrate/config"
	"gitlabmigrate/services"
	"gitlabmigrate/utils"
)

func main() {
	// コマンドラインフラグの定義
	projectsFile := flag.String("projects-file", "", "移行対象リストファイル（環境変数より優先）")
	help := flag.Bool("help", false, "ヘルプを表示する")

	// フラグのパース
	flag.Parse()

	// ヘルプフラグが指定された場合はヘルプを表示
	if *help {
		printHelp()
		return
	}

	// 設定の読み込み
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("設定の読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	// リストファイルの上書き（指定された場合のみ）
	if *projectsFile != "" {
		cfg.ProjectsFile = *projectsFile
	}

	utils.LogInfo("GitLab CE → EE 移行ツール")
	utils.LogInfo("移行元: %s, 移行先: %s, ルートグループ: %s", cfg.CEURL, cfg.EEURL, cfg.DestRootGroup)

	// 移行対象リストの読み込み
	repos, err := services.LoadProjectList(cfg.ProjectsFile)
	if err != nil {
		utils.LogError("移行対象リストの読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	utils.LogInfo("移行対象: %d プロジェクト", len(repos))

	// 必要なサービスの初期化
	ceClient := api.NewClient(cfg.CEURL, cfg.CEToken)
	eeClient := api.NewClient(cfg.EEURL, cfg.EEToken)
	migrationService := services.NewMigrationService(cfg, ceClient, eeClient)

	// 移行の実行（プロジェクト単位の失敗はログに記録して継続）
	migrationService.Run(repos)
}

// ヘルプメッセージを表示する関数
func printHelp() {
	fmt.Printf(`
GitLab CE → EE 移行ツール

使用方法:
  %s [オプション]

オプション:
  -projects-file=PATH  移行対象リストファイルを指定する（環境変数より優先）
  -help                このヘルプを表示する

環境変数:
  GITLAB_CE_URL            移行元GitLabのベースURL (必須)
  GITLAB_EE_URL            移行先GitLabのベースURL (必須)
  GITLAB_CE_TOKEN          移行元のAPIトークン (必須)
  GITLAB_EE_TOKEN          移行先のAPIトークン (必須)
  GITLAB_PROJECTS_FILE     移行対象リストファイルのパス (必須)
  GITLAB_DEST_ROOT_GROUP   移行先のルートグループパス (必須)
  GITLAB_INCLUDE_PREFIX    CI includeパスに付与するプレフィックス (デフォルト: viridien/)
  GITLAB_MAX_POLL_MINUTES  エクスポート/インポート待機の上限（分） (デフォルト: 60)

リストファイル形式:
  1行に1プロジェクトのパス（例: teamA/proj1）。
  空行と#で始まる行は無視されます。末尾の.gitは取り除かれます。

説明:
  リスト内の各プロジェクトについて、移行先のグループ階層を作成し、
  エクスポート/インポートでプロジェクトを転送したうえで、
  .gitlab-ci.ymlのincludeパスを書き換え、イシューを照合します。
  既に移行済みのプロジェクトは転送をスキップして後処理のみ行うため、
  同じリストで何度でも再実行できます。
`, os.Args[0])
}
