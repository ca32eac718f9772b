// Package chatclient 是看板聊天服务的 Go 客户端：
// - Client：POST /chat 流式请求与任务 REST 接口
// - Consumer：按行解析 SSE，半行与暂不可解析的行留在缓冲区等待更多字节
// - Session：维护消息列表（流式文本合并为一条助手消息），判定是否创建了任务并延迟刷新看板
package chatclient
