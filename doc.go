// Package kanbanchat 提供看板（Kanban）任务板的 AI 聊天助手能力：
// 服务端把聊天请求转发给 OpenAI 兼容的 LLM 网关，并在 SSE 流转发过程中拦截 create_task 工具调用、
// 落库新任务、注入确认消息；客户端增量消费该 SSE 流并在任务创建后刷新看板。
//
// 该仓库主要包含以下能力：
//  1. relay：上游流转换器（工具调用累积、收尾落库、确认消息注入）
//  2. kanbanhttp：gin 路由（/chat 与任务 CRUD）
//  3. chatclient：客户端流消费者（merge-or-append、任务创建检测、看板刷新）
//  4. board：任务模型与持久化（sqlite / PostgREST）
package kanbanchat
