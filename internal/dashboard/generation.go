package dashboard

import "sync/atomic"

// Generation 单个逻辑槽位的请求令牌：只有最新发出的令牌对应的结果才会被采用
type Generation struct {
	n atomic.Uint64
}

// Next 发出新令牌，之前的令牌全部作废
func (g *Generation) Next() uint64 { return g.n.Add(1) }

// IsLatest 令牌是否仍是最新
func (g *Generation) IsLatest(token uint64) bool { return g.n.Load() == token }
