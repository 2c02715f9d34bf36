// Package store 提供 core.Store / core.HashStore 的实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
//	var s core.HashStore = store.NewMemoryStore()
//	r, err := store.NewRedisStore("127.0.0.1:6379", 0)
package store

import "github.com/rushteam/itemcf/core"

var (
	_ core.HashStore = (*MemoryStore)(nil)
	_ core.HashStore = (*RedisStore)(nil)
)
