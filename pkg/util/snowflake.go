package util

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	snowflakeMu   sync.Mutex
	snowflakeNode *snowflake.Node
)

// InitSnowflake 初始化雪花节点（nodeID 取值 0~1023，多实例部署需保证唯一）。
func InitSnowflake(nodeID int64) error {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	snowflakeMu.Lock()
	snowflakeNode = node
	snowflakeMu.Unlock()
	return nil
}

// NextID 生成全局趋势递增 ID。
// 未显式初始化时使用节点 1，保证单测与本地运行可用。
func NextID() int64 {
	snowflakeMu.Lock()
	if snowflakeNode == nil {
		snowflakeNode, _ = snowflake.NewNode(1)
	}
	node := snowflakeNode
	snowflakeMu.Unlock()
	return node.Generate().Int64()
}
