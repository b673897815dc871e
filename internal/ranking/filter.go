package ranking

import (
	"strings"

	"github.com/vibedash/vibedash/internal/market"
)

// Filter pack 列表筛选条件
type Filter struct {
	Query        string // 匹配 creator 或名称，不区分大小写
	Rarity       string // ALL 或某个稀有度
	VerifiedOnly bool
}

// Apply 返回满足条件的 pack，保持原顺序
func (f Filter) Apply(records []market.Record) []market.Record {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	want, byRarity := market.ParseRarityFilter(f.Rarity)

	out := make([]market.Record, 0, len(records))
	for _, rec := range records {
		if f.VerifiedOnly && !rec.Verified() {
			continue
		}
		if byRarity && rec.Rarity() != want {
			continue
		}
		if q != "" {
			creator := strings.ToLower(rec.String("creator"))
			name := strings.ToLower(rec.String("name", "collectionName"))
			if !strings.Contains(creator, q) && !strings.Contains(name, q) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}
