package services

import (
	"fmt"

	"gitlabmigrate/api"
	"gitlabmigrate/utils"
)

// GroupEnsurer は移行先のグループ階層を冪等に構築します
type GroupEnsurer struct {
	client *api.Client
}

// NewGroupEnsurer は新しいグループ構築サービスを作成します
func NewGroupEnsurer(client *api.Client) *GroupEnsurer {
	return &GroupEnsurer{client: client}
}

// EnsureGroup はフルパスのグループを検索し、なければ作成します
// 作成が競合で失敗した場合は他者が先に作ったものとして再検索します
func (g *GroupEnsurer) EnsureGroup(fullPath, name string, parentID int) (int, bool, error) {
	group, err := g.client.GetGroup(fullPath)
	if err != nil {
		return 0, false, err
	}
	if group != nil {
		return group.ID, false, nil
	}

	created, err := g.client.CreateGroup(name, name, parentID)
	if err == nil {
		return created.ID, true, nil
	}

	// 競合以外の失敗はそのまま伝播する
	if !api.IsConflict(err) {
		return 0, false, err
	}

	group, lookupErr := g.client.GetGroup(fullPath)
	if lookupErr != nil {
		return 0, false, lookupErr
	}
	if group != nil {
		return group.ID, false, nil
	}

	// 競合と言われたのに見つからない場合は元のエラーを返す
	return 0, false, err
}

// EnsurePath はスラッシュ区切りのグループ階層を左から順に構築します
// 各セグメントの作成/検索結果のIDを次のセグメントの親として渡します
func (g *GroupEnsurer) EnsurePath(parts []string) (int, error) {
	parentID := 0
	currentPath := ""

	for _, part := range parts {
		if currentPath == "" {
			currentPath = part
		} else {
			currentPath = fmt.Sprintf("%s/%s", currentPath, part)
		}

		id, created, err := g.EnsureGroup(currentPath, part, parentID)
		if err != nil {
			return 0, fmt.Errorf("グループ %s の作成エラー: %w", currentPath, err)
		}

		if created {
			utils.LogInfo("グループを作成しました: %s", currentPath)
		} else {
			utils.LogInfo("グループは既に存在します: %s", currentPath)
		}

		parentID = id
	}

	return parentID, nil
}
