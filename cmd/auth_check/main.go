package main

import (
	"flag"
	"fmt"
	"os"

	"gitlabmigrate/api"
	"gitlabmigrate/config"
	"gitlabmigrate/utils"
)

func main() {
	// ヘルプフラグの定義
	help := flag.Bool("help", false, "ヘルプを表示する")

	// フラグのパース
	flag.Parse()

	// ヘルプフラグが指定された場合はヘルプを表示
	if *help {
		printHelp()
		return
	}

	utils.LogInfo("GitLab認証確認ツール")

	// 設定の読み込み
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("設定の読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	failed := false

	// 移行元の認証チェック
	utils.LogInfo("CE APIの認証を確認しています... (%s)", cfg.CEURL)
	if err := api.NewClient(cfg.CEURL, cfg.CEToken).CheckAuth(); err != nil {
		utils.LogError("CE認証エラー: %v", err)
		failed = true
	} else {
		utils.LogInfo("CE認証成功！ 接続先: %s", cfg.CEURL)
	}

	// 移行先の認証チェック
	utils.LogInfo("EE APIの認証を確認しています... (%s)", cfg.EEURL)
	if err := api.NewClient(cfg.EEURL, cfg.EEToken).CheckAuth(); err != nil {
		utils.LogError("EE認証エラー: %v", err)
		failed = true
	} else {
		utils.LogInfo("EE認証成功！ 接続先: %s", cfg.EEURL)
	}

	if failed {
		utils.LogError("認証情報を確認してください。")
		os.Exit(1)
	}

	utils.LogInfo("両インスタンスのAPI認証情報は正常です。")
}

// ヘルプメッセージを表示する関数
func printHelp() {
	fmt.Printf(`
GitLab認証確認ツール

使用方法:
  %s [オプション]

オプション:
  -help               このヘルプを表示する

環境変数:
  GITLAB_CE_URL       移行元GitLabのベースURL (必須)
  GITLAB_EE_URL       移行先GitLabのベースURL (必須)
  GITLAB_CE_TOKEN     移行元のAPIトークン (必須)
  GITLAB_EE_TOKEN     移行先のAPIトークン (必須)

説明:
  このツールは移行元・移行先両方のAPI認証情報が正しく設定されているかを
  確認します。認証が成功すれば、移行ツールも正常に動作する可能性が高いです。
`, os.Args[0])
}
