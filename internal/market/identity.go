package market

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyFor 记录的稳定标识：
// id > contract-tokenId > "h-" + keccak256(规范化 JSON)
// 同一内容多次计算结果一致；同合约同名但内容不同的记录 key 不同
func KeyFor(rec Record) string {
	if id := rec.ID(); id != "" {
		return id
	}
	contract := NormalizeAddress(rec.Contract())
	if tok := rec.TokenID(); contract != "" && tok != "" {
		return contract + "-" + tok
	}
	return contentHash(rec)
}

// NormalizeAddress 十六进制地址统一小写，其它原样返回
func NormalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		return strings.ToLower(common.HexToAddress(s).Hex())
	}
	return s
}

// contentHash encoding/json 对 map 按 key 排序输出，可作为规范化形式
func contentHash(rec Record) string {
	b, err := json.Marshal(map[string]any(rec))
	if err != nil {
		b = []byte{}
	}
	return "h-" + crypto.Keccak256Hash(b).Hex()[2:18]
}

// Dedupe 按 KeyFor 去重，保留首次出现
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := KeyFor(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
