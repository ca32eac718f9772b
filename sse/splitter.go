package sse

import (
	"bytes"
	"strings"
)

// Splitter 累积流字节并逐行取出完整行。零值可用，不可并发使用。
type Splitter struct {
	buf []byte
}

func (s *Splitter) Write(p []byte) {
	s.buf = append(s.buf, p...)
}

// Next 取出下一条完整行；没有完整行时返回 false，半行保留在缓冲区。
func (s *Splitter) Next() (string, bool) {
	idx := bytes.IndexByte(s.buf, '\n')
	if idx < 0 {
		return "", false
	}
	line := string(s.buf[:idx])
	s.buf = s.buf[idx+1:]
	if len(s.buf) == 0 {
		s.buf = nil
	}
	return strings.TrimSuffix(line, "\r"), true
}

// Unread 把一行放回缓冲区头部，等待更多字节后重新解析。
func (s *Splitter) Unread(line string) {
	head := make([]byte, 0, len(line)+1+len(s.buf))
	head = append(head, line...)
	head = append(head, '\n')
	s.buf = append(head, s.buf...)
}

// Rest 返回缓冲区中尚未取出的文本。
func (s *Splitter) Rest() string {
	return string(s.buf)
}

func (s *Splitter) Reset() {
	s.buf = nil
}
