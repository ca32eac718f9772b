// Package openaiapi 提供 OpenAI chat.completions 流式协议的通用数据结构与辅助函数。
//
// 该包只关注协议层：请求 JSON 结构、工具定义、SSE chunk 结构以及少量构建函数。
// 流的拆行与解析在 sse 包中实现。
//
// 示例：创建一个内容 chunk 并序列化输出
//
//	chunk := openaiapi.ContentChunk("hello")
//	_ = json.NewEncoder(w).Encode(chunk)
package openaiapi
