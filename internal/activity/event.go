// Package activity 把开包记录转换为跑马灯事件
package activity

import (
	"fmt"
	"time"

	"github.com/vibedash/vibedash/internal/market"
)

// Event 一条开包动态
type Event struct {
	ID         string        `json:"id"`
	Owner      string        `json:"owner"`
	Collection string        `json:"collection"`
	TokenID    string        `json:"tokenId"`
	Rarity     market.Rarity `json:"rarity"`
	PriceUsd   string        `json:"priceUsd"`
	Image      string        `json:"image,omitempty"`
	Timestamp  int64         `json:"ts"`
	Source     State         `json:"source"`
}

// FromRecord tokenId 缺失时依次退回记录 id 和 "—"
func FromRecord(rec market.Record, src State, fetchedAt time.Time) Event {
	tokenID := rec.TokenID()
	if tokenID == "" {
		tokenID = rec.ID()
	}
	if tokenID == "" {
		tokenID = "—"
	}
	return Event{
		ID:         market.KeyFor(rec),
		Owner:      rec.Owner(),
		Collection: rec.Collection(),
		TokenID:    tokenID,
		Rarity:     rec.Rarity(),
		PriceUsd:   market.PickUsd(rec),
		Image:      rec.Image(),
		Timestamp:  rec.Timestamp(fetchedAt),
		Source:     src,
	}
}

// TickerLine 例如 "0x1234…abcd pulled EPIC in Series #12 ($3.50)"
func (e Event) TickerLine() string {
	line := fmt.Sprintf("%s pulled %s in %s #%s", market.Short(e.Owner), e.Rarity, e.Collection, e.TokenID)
	if e.PriceUsd != "" {
		line += " (" + e.PriceUsd + ")"
	}
	return line
}
