// Package tradelist 本地"待交易"清单，整份保存在一个命名 blob 中
package tradelist

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/vibedash/vibedash/internal/market"
	"github.com/vibedash/vibedash/internal/metrics"
	"github.com/vibedash/vibedash/internal/wield"
	"github.com/vibedash/vibedash/pkg/persistence"
)

var log = logrus.WithField("module", "tradelist")

// BlobKey 持久化 key
const BlobKey = "forTrade"

var (
	ErrImportUnavailable = errors.New("could not import from wallet, add manually")
	ErrInvalidItem       = errors.New("name or contract is required")
	ErrInvalidAddress    = errors.New("invalid wallet address")
	ErrNotFound          = errors.New("trade item not found")
)

// Item 清单条目；字段顺序即序列化顺序
type Item struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Rarity   market.Rarity `json:"rarity"`
	Contract string        `json:"contract"`
	TokenID  string        `json:"tokenId"`
	Notes    string        `json:"notes"`
}

// OwnerLookup 由 wield.API 实现
type OwnerLookup interface {
	Owner(ctx context.Context, address string) (*wield.Profile, error)
}

// Store 清单读写；所有变更串行化并整份重写
type Store struct {
	mu    sync.Mutex
	blob  persistence.Store
	owner OwnerLookup
	items []Item
}

// New 创建并立即加载清单
func New(svc persistence.Service, owner OwnerLookup) *Store {
	s := &Store{blob: svc.NewStore(BlobKey), owner: owner}
	s.items = s.Load()
	return s
}

// Load 读取持久化清单；不存在或损坏时返回空清单
func (s *Store) Load() []Item {
	raw, err := s.blob.LoadRaw()
	if err != nil {
		if !errors.Is(err, persistence.ErrNotExists) {
			log.Warnf("读取交易清单失败: %v", err)
		}
		return []Item{}
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warnf("交易清单内容损坏，按空清单处理: %v", err)
		return []Item{}
	}
	if items == nil {
		items = []Item{}
	}
	return items
}

// Save 整份覆盖写入；失败只记录日志
func (s *Store) Save(items []Item) {
	if items == nil {
		items = []Item{}
	}
	if err := s.blob.Save(items); err != nil {
		log.Errorf("保存交易清单失败: %v", err)
		return
	}
	metrics.TradeListSaves.Add(1)
}

// MergeImported 按 id 去重合并，先出现的保留
func MergeImported(existing, imported []Item) []Item {
	seen := make(map[string]struct{}, len(existing)+len(imported))
	out := make([]Item, 0, len(existing)+len(imported))
	for _, list := range [][]Item{existing, imported} {
		for _, it := range list {
			if _, ok := seen[it.ID]; ok {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}

// Items 当前清单的副本
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item{}, s.items...)
}

// Add 新增条目：name 与 contract 至少一个非空
// id 优先取 contract-tokenId，冲突时追加随机后缀，缺失时用 uuid
func (s *Store) Add(it Item) (Item, error) {
	it.Name = strings.TrimSpace(it.Name)
	it.Contract = strings.TrimSpace(it.Contract)
	it.TokenID = strings.TrimSpace(it.TokenID)
	if it.Name == "" && it.Contract == "" {
		return Item{}, ErrInvalidItem
	}
	it.Rarity = market.NormalizeRarity(string(it.Rarity))

	s.mu.Lock()
	defer s.mu.Unlock()

	it.ID = s.newID(it)
	s.items = append(s.items, it)
	s.Save(s.items)
	return it, nil
}

func (s *Store) newID(it Item) string {
	if it.Contract == "" || it.TokenID == "" {
		return uuid.NewString()
	}
	id := itemKey(it.Contract, it.TokenID)
	if s.has(id) {
		id += "-" + uuid.NewString()[:8]
	}
	return id
}

func (s *Store) has(id string) bool {
	for _, it := range s.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func itemKey(contract, tokenID string) string {
	return market.NormalizeAddress(contract) + "-" + tokenID
}

// Remove 按 id 删除
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.items[:0:0]
	for _, it := range s.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	if len(out) == len(s.items) {
		return ErrNotFound
	}
	s.items = out
	s.Save(s.items)
	return nil
}

// ImportFromWallet 把钱包持有的卡牌合并进清单；失败时清单不变
func (s *Store) ImportFromWallet(ctx context.Context, address string) ([]Item, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}
	if s.owner == nil {
		return nil, ErrImportUnavailable
	}
	profile, err := s.owner.Owner(ctx, address)
	if err != nil {
		log.WithField("address", address).Warnf("钱包导入失败: %v", err)
		return nil, errors.Wrap(ErrImportUnavailable, err.Error())
	}

	imported := make([]Item, 0, len(profile.Holdings))
	for _, h := range profile.Holdings {
		imported = append(imported, FromHolding(h))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = MergeImported(s.items, imported)
	s.Save(s.items)
	return append([]Item{}, s.items...), nil
}

// FromHolding 钱包持仓 -> 清单条目；缺合约或 tokenId 时用内容哈希作 id
func FromHolding(h market.Record) Item {
	contract := h.String("contract", "address")
	tokenID := h.String("tokenId", "id")
	name := h.String("name", "series")
	if name == "" {
		name = "Item"
	}
	id := market.KeyFor(h)
	if contract != "" && tokenID != "" {
		id = itemKey(contract, tokenID)
	}
	return Item{
		ID:       id,
		Name:     name,
		Rarity:   h.Rarity(),
		Contract: contract,
		TokenID:  tokenID,
	}
}
