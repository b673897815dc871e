// Package proxy 把 /api/wield/* 透传到上游，并在服务端注入 API key
package proxy

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "proxy")

type Config struct {
	UpstreamURL string
	APIKey      string
	Timeout     time.Duration
}

// Proxy 不含业务逻辑：原样返回上游的状态码、body 和 content-type
type Proxy struct {
	client *resty.Client
	base   string
	apiKey string
}

func New(cfg Config) *Proxy {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Proxy{
		client: resty.New().SetTimeout(timeout).SetLogger(log),
		base:   strings.TrimRight(cfg.UpstreamURL, "/"),
		apiKey: cfg.APIKey,
	}
}

// Handle 路由需带 *path 通配参数
func (p *Proxy) Handle(c *gin.Context) {
	method := c.Request.Method
	if method != http.MethodGet && method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "method not allowed"})
		return
	}

	upstream := p.base + "/" + strings.TrimLeft(c.Param("path"), "/")
	if q := c.Request.URL.RawQuery; q != "" {
		upstream += "?" + q
	}

	req := p.client.R().
		SetContext(c.Request.Context()).
		SetHeader("x-api-key", p.apiKey)
	if method == http.MethodPost {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}
		ct := c.GetHeader("Content-Type")
		if ct == "" {
			ct = "application/json"
		}
		req.SetHeader("Content-Type", ct).SetBody(body)
	}

	resp, err := req.Execute(method, upstream)
	if err != nil {
		log.WithField("upstream", upstream).Warnf("上游请求失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	ct := resp.Header().Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	c.Data(resp.StatusCode(), ct, resp.Body())
}
