// Package store 只包含实现，接口定义在 core 包：
//   - core.Store：KV（结果缓存、黑名单）
//   - core.VideoStore / core.InteractionStore：目录与交互历史
//
// 示例：
//
//	var kv core.Store = NewMemoryStore()
//	var catalog core.VideoStore = NewMemoryCatalog()
package store
