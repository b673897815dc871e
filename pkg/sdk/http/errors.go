package http

import (
	"fmt"
	"strings"
)

// NetworkError 请求无法发出或未完成（连接失败、超时、ctx 取消）
type NetworkError struct {
	Path string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("wield network error %s: %v", e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FetchError 上游返回非 2xx，携带状态码和尽力读取的 body 文本
type FetchError struct {
	Path   string
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	return strings.TrimSpace(fmt.Sprintf("Wield %d %s", e.Status, e.Body))
}

// ParseError 响应声明为 JSON 但内容无法解析
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wield parse error %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
