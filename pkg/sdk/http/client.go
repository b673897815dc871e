package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/vibedash/vibedash/pkg/ratelimit"
)

var log = logrus.WithField("module", "sdk.http")

// Config 客户端配置，由调用方显式传入
type Config struct {
	BaseURL    string        // 代理前缀，例如 http://127.0.0.1:8080/api/wield
	Timeout    time.Duration // 默认 15s
	RetryCount int           // 仅对传输错误和 429 生效
	Limiter    ratelimit.RateLimiter
	UserAgent  string
}

// Client 通过代理访问上游市场 API 的客户端
type Client struct {
	client  *resty.Client
	limiter ratelimit.RateLimiter
	ua      string
}

// RequestOptions 单次请求选项
type RequestOptions struct {
	Method  string // 默认 GET
	Headers map[string]string
	Params  map[string]any
	Data    any
}

func NewClient(cfg Config) *Client {
	host := strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "vibedash/1.0"
	}

	client := resty.New().
		SetBaseURL(host).
		SetLogger(log).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// 传输错误和 429 重试；其它非 2xx 交给业务层决定是否 fallback
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode() == http.StatusTooManyRequests
		}).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp != nil && resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
				}
				return 2 * time.Second, nil
			}
			return 0, nil
		})

	return &Client{client: client, limiter: cfg.Limiter, ua: ua}
}

// cleanPath 去掉开头的 /，统一拼接到 BaseURL 下
func cleanPath(path string) string {
	return strings.TrimLeft(strings.TrimSpace(path), "/")
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	if ctx == nil {
		ctx = context.Background()
	}
	r := c.client.R().SetContext(ctx)
	r.SetHeader("Accept", "application/json, text/plain, */*")
	r.SetHeader("User-Agent", c.ua)
	// 始终禁用缓存
	r.SetHeader("Cache-Control", "no-cache")
	r.SetHeader("Pragma", "no-cache")
	return r
}

// Fetch 请求相对路径资源
//   - 非 2xx 返回 *FetchError（body 读取失败时 Body 为空字符串）
//   - 声明 application/json 时解析 JSON
//   - 否则尽力把文本当 JSON 解析，失败则原样返回字符串
//
// 数字统一解码为 json.Number，避免大 tokenId 丢精度。
func (c *Client) Fetch(ctx context.Context, path string, opt *RequestOptions) (any, error) {
	endpoint := cleanPath(path)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Path: endpoint, Err: err}
		}
	}

	rc := c.newRequest(ctx)
	method := http.MethodGet
	if opt != nil {
		if opt.Method != "" {
			method = strings.ToUpper(opt.Method)
		}
		for k, v := range opt.Headers {
			rc.SetHeader(k, v)
		}
		if opt.Params != nil {
			rc.SetQueryParamsFromValues(toValues(opt.Params))
		}
		if opt.Data != nil {
			rc.SetHeader("Content-Type", "application/json")
			rc.SetBody(opt.Data)
		}
	}

	start := time.Now()
	resp, err := rc.Execute(method, endpoint)
	if err != nil {
		// 状态码已经拿到、只是读 body 失败：仍按状态码错误处理，body 置空
		if resp != nil && resp.RawResponse != nil && !resp.IsSuccess() {
			log.WithFields(logrus.Fields{"path": endpoint, "status": resp.StatusCode()}).Warn("读取错误响应 body 失败")
			return nil, &FetchError{Path: endpoint, Status: resp.StatusCode()}
		}
		log.WithField("path", endpoint).Warnf("请求失败: %v", err)
		return nil, &NetworkError{Path: endpoint, Err: err}
	}

	log.WithFields(logrus.Fields{
		"path":    endpoint,
		"status":  resp.StatusCode(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("wield 请求完成")

	if !resp.IsSuccess() {
		return nil, &FetchError{Path: endpoint, Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	body := resp.Body()
	if strings.Contains(strings.ToLower(resp.Header().Get("Content-Type")), "application/json") {
		v, err := decodeJSON(body)
		if err != nil {
			return nil, &ParseError{Path: endpoint, Err: err}
		}
		return v, nil
	}

	// 有些上游 content-type 标错，先尝试 JSON，失败再返回原文
	if v, err := decodeJSON(body); err == nil {
		return v, nil
	}
	return string(body), nil
}

func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	// 拒绝尾部垃圾，例如 "{} xyz"
	if dec.More() {
		return nil, fmt.Errorf("unexpected trailing data")
	}
	return v, nil
}

func toValues(m map[string]any) map[string][]string {
	v := make(map[string][]string, len(m))
	for k, val := range m {
		switch t := val.(type) {
		case []string:
			v[k] = t
		default:
			v[k] = []string{fmt.Sprint(val)}
		}
	}
	return v
}
