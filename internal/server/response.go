package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一返回结构
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func OkJson(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: "ok", Data: data})
}

// Error 业务错误：HTTP 状态码同时写入 code
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Code: status, Msg: msg})
}
