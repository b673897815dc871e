// Package ranking 从 pack 快照派生认证创作者排行和认证子集
package ranking

import (
	"sort"

	"github.com/vibedash/vibedash/internal/market"
)

// UnknownCreatorPolicy 无创作者字段的认证 pack 如何处理
type UnknownCreatorPolicy string

const (
	UnknownBucket  UnknownCreatorPolicy = "bucket"  // 归入 "unknown"
	UnknownExclude UnknownCreatorPolicy = "exclude" // 直接丢弃
)

// UnknownCreatorKey 未知创作者的聚合 key
const UnknownCreatorKey = "unknown"

const (
	DefaultLeaderboardLimit = 20
	DefaultVerifiedLimit    = 24
	DefaultFeaturedLimit    = 8
)

// CreatorAggregate 单个创作者的聚合结果
type CreatorAggregate struct {
	Creator  string  `json:"creator"`
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	MaxValue float64 `json:"maxValue"`
	TopName  string  `json:"topName"`
}

type Options struct {
	Limit          int
	UnknownCreator UnknownCreatorPolicy
}

// VerifiedCreators 按最高美元价值降序排列的认证创作者，最多 Limit 个
// 价值相同时保留先出现的 pack 名称；排序稳定
func VerifiedCreators(records []market.Record, opts Options) []CreatorAggregate {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	byKey := make(map[string]*CreatorAggregate)
	order := make([]string, 0)
	for _, rec := range records {
		if !rec.Verified() {
			continue
		}
		key := rec.Creator()
		if key == "" {
			if opts.UnknownCreator == UnknownExclude {
				continue
			}
			key = UnknownCreatorKey
		}

		agg, ok := byKey[key]
		if !ok {
			name := rec.String("creator")
			if name == "" {
				name = key
			}
			agg = &CreatorAggregate{Creator: key, Name: name}
			byKey[key] = agg
			order = append(order, key)
		}
		agg.Count++
		if v := market.UsdNum(rec); v > agg.MaxValue {
			agg.MaxValue = v
			agg.TopName = rec.Name()
		}
	}

	out := make([]CreatorAggregate, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MaxValue > out[j].MaxValue })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// VerifiedSubset 前 n 个认证 pack
func VerifiedSubset(records []market.Record, n int) []market.Record {
	if n <= 0 {
		n = DefaultVerifiedLimit
	}
	out := make([]market.Record, 0, n)
	for _, rec := range records {
		if len(out) == n {
			break
		}
		if rec.Verified() {
			out = append(out, rec)
		}
	}
	return out
}

// FeaturedPacks 展示用：有认证 pack 时返回认证子集，否则返回前 fallback 个 pack
func FeaturedPacks(records []market.Record, verifiedLimit, fallback int) []market.Record {
	if v := VerifiedSubset(records, verifiedLimit); len(v) > 0 {
		return v
	}
	if fallback <= 0 {
		fallback = DefaultFeaturedLimit
	}
	if len(records) > fallback {
		records = records[:fallback]
	}
	return append([]market.Record(nil), records...)
}
