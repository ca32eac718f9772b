// Package relay 实现服务端上游流转换器：
//
// 把聊天请求（历史消息 + 任务摘要）转发到 OpenAI 兼容网关（stream=true，附带 create_task 工具），
// 增量转发文本 delta，拦截并累积 tool_calls 片段；收到 [DONE] 时执行收尾：
// 落库新任务并注入一条确认（或错误）消息，然后输出 relay 自己的 [DONE]。
//
// 每个请求独占自己的 Transformer（缓冲区、累积器、标志位），请求之间不共享任何可变状态。
//
// 使用示例：
//
//	r, _ := relay.New(relay.Config{Credentials: auth.Static(key), Store: store})
//	stream, err := r.Open(ctx, input)
//	if err != nil {
//		// relay.StatusFromError(err) / relay.MessageFromError(err)
//	}
//	_ = stream.Pump(ctx, w, flusher.Flush)
package relay
