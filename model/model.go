package model

// All 返回需要自动迁移的表结构。
func All() []interface{} {
	return []interface{}{
		&UserInfo{},
		&UserRelation{},
		&ConnectionRequest{},
		&Notification{},
	}
}
