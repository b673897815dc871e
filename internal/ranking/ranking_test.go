package ranking

import (
	"fmt"
	"testing"

	"github.com/vibedash/vibedash/internal/market"
)

func verified(fields market.Record) market.Record {
	fields["metadata"] = map[string]any{"verified": true}
	return fields
}

func TestVerifiedCreatorsExample(t *testing.T) {
	records := []market.Record{
		verified(market.Record{"creator": "A", "usdPrice": 10, "name": "a1"}),
		verified(market.Record{"creator": "A", "usdPrice": 50, "name": "a2"}),
		verified(market.Record{"creator": "B", "usdPrice": 5, "name": "b1"}),
		{"creator": "C", "usdPrice": 100, "name": "c1"},
	}

	got := VerifiedCreators(records, Options{})
	if len(got) != 2 {
		t.Fatalf("未认证的 pack 不参与排行，应该有 2 个创作者，实际为 %d", len(got))
	}

	want := []CreatorAggregate{
		{Creator: "A", Name: "A", Count: 2, MaxValue: 50, TopName: "a2"},
		{Creator: "B", Name: "B", Count: 1, MaxValue: 5, TopName: "b1"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("第 %d 名应该为 %+v，实际为 %+v", i+1, want[i], got[i])
		}
	}
}

func TestVerifiedCreatorsTiesAndKeys(t *testing.T) {
	records := []market.Record{
		verified(market.Record{"creatorAddress": "0xabc", "usdPrice": 7, "name": "first"}),
		verified(market.Record{"creatorAddress": "0xabc", "usdPrice": 7, "name": "second"}),
		verified(market.Record{"usdPrice": 3}),
		verified(market.Record{"creator": "Z"}),
	}

	got := VerifiedCreators(records, Options{})
	if len(got) != 3 {
		t.Fatalf("应该有 3 个创作者，实际为 %d", len(got))
	}
	if got[0].Creator != "0xabc" || got[0].Name != "0xabc" {
		t.Errorf("没有 creator 字段时应该展示 key，实际为 %s/%s", got[0].Creator, got[0].Name)
	}
	if got[0].TopName != "first" {
		t.Errorf("相同价值应该保留先出现的，实际为 %s", got[0].TopName)
	}
	if got[1].Creator != UnknownCreatorKey {
		t.Errorf("无创作者的 pack 应该归入 %s，实际为 %s", UnknownCreatorKey, got[1].Creator)
	}
	if got[2].Creator != "Z" || got[2].TopName != "" {
		t.Errorf("价值为 0 时没有 top pack，实际为 %+v", got[2])
	}

	for _, agg := range VerifiedCreators(records, Options{UnknownCreator: UnknownExclude}) {
		if agg.Creator == UnknownCreatorKey {
			t.Error("exclude 策略下不应该出现 unknown")
		}
	}
}

func TestVerifiedCreatorsLimit(t *testing.T) {
	var records []market.Record
	for i := 0; i < 30; i++ {
		records = append(records, verified(market.Record{"creator": fmt.Sprintf("c%d", i), "usdPrice": i}))
	}
	got := VerifiedCreators(records, Options{})
	if len(got) != DefaultLeaderboardLimit {
		t.Fatalf("默认应该截取 %d 个，实际为 %d", DefaultLeaderboardLimit, len(got))
	}
	if got[0].Creator != "c29" {
		t.Errorf("第一名应该为 c29，实际为 %s", got[0].Creator)
	}

	if n := len(VerifiedCreators(records, Options{Limit: 3})); n != 3 {
		t.Errorf("limit=3 应该截取 3 个，实际为 %d", n)
	}
	if n := len(VerifiedCreators(nil, Options{})); n != 0 {
		t.Errorf("空输入应该返回空排行，实际为 %d", n)
	}
}

func TestFeaturedPacks(t *testing.T) {
	var plain []market.Record
	for i := 0; i < 10; i++ {
		plain = append(plain, market.Record{"id": fmt.Sprint(i)})
	}
	if n := len(FeaturedPacks(plain, 24, 8)); n != 8 {
		t.Errorf("没有认证 pack 时应该取前 8 个，实际为 %d", n)
	}
	if n := len(VerifiedSubset(plain, 24)); n != 0 {
		t.Errorf("认证子集应该为空，实际为 %d", n)
	}

	mixed := append([]market.Record{verified(market.Record{"id": "v"})}, plain...)
	got := FeaturedPacks(mixed, 24, 8)
	if len(got) != 1 || got[0].ID() != "v" {
		t.Errorf("有认证 pack 时只展示认证子集，实际为 %+v", got)
	}
}

func TestFilter(t *testing.T) {
	records := []market.Record{
		verified(market.Record{"creator": "Alice", "name": "Dragons", "rarity": 4}),
		{"creator": "bob", "collectionName": "Cats", "metadata": map[string]any{"rarity": "rare"}},
		{"name": "alpha pack"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty", Filter{}, []string{"Dragons", "Cats", "alpha pack"}},
		{"all rarities", Filter{Rarity: "ALL"}, []string{"Dragons", "Cats", "alpha pack"}},
		{"verified only", Filter{VerifiedOnly: true}, []string{"Dragons"}},
		{"query is case insensitive", Filter{Query: "AL"}, []string{"Dragons", "alpha pack"}},
		{"rarity", Filter{Rarity: "RARE"}, []string{"Cats"}},
		{"query and rarity", Filter{Query: "cat", Rarity: "common"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(records)
			if len(got) != len(tt.want) {
				t.Fatalf("应该剩 %d 条，实际为 %d", len(tt.want), len(got))
			}
			for i, name := range tt.want {
				if got[i].Name() != name {
					t.Errorf("第 %d 条应该为 %s，实际为 %s", i, name, got[i].Name())
				}
			}
		})
	}
}
