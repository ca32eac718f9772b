// Package board 定义看板任务模型与持久化契约。
//
// Store 是 relay 与 HTTP 层共用的持久化协作方，提供插入、按 position 排序列出、按 id 更新/删除以及列内重排。
// 内置两种实现：
//   - SQLStore：基于 gorm + 纯 Go sqlite，本地默认实现
//   - PostgRESTStore：托管后端（PostgREST/Supabase 风格 REST 接口）
package board
