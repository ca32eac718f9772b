// Package kanbanhttp 提供看板聊天服务的 HTTP 表面：
// - POST {base}/chat：流式聊天（SSE），由 relay 完成上游转发与 create_task 拦截
// - {base}/tasks：任务的增删改查、列内排序与跨列移动
//
// 使用示例：
//
//	// net/http（仅聊天端点）
//	chatH, _ := kanbanhttp.Handlers(kanbanhttp.Config{Relay: r, Store: store})
//	mux.HandleFunc("/api/chat", chatH)
//
//	// gin
//	_ = kanbanhttp.RegisterGinRoutes(engine, kanbanhttp.Config{
//		BasePath: "/api",
//		Relay:    r,
//		Store:    store,
//	})
package kanbanhttp
