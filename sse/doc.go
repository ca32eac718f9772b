// Package sse 实现 relay 与客户端共用的 SSE 拆行与帧解析规则：
//
//   - Splitter 跨网络 chunk 缓冲半行，只产出以 \n 结尾的完整行（去掉行尾 \r）
//   - Classify 把一行归类为 跳过/非 data 行/结束哨兵/data 载荷
//   - DecodeDelta 把 data 载荷解析成带标签的 Delta（content / tool_calls / 其他）
//
// 按字节切分 \n 不会切断 UTF-8 多字节字符，因此半个字符会随半行一起留在缓冲区里。
package sse
