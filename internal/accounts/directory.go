package accounts

import (
	"sync"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// Directory 进程内账户目录：账户引用 -> 归属身份与推荐人。
// 未登记的账户按自持处理（owner = 账户自身，无推荐人）。
type Directory struct {
	mu        sync.RWMutex
	owners    map[domain.AccountRef]domain.AccountRef
	referrers map[domain.AccountRef]*domain.ReferrerInfo
}

// NewDirectory 创建空账户目录
func NewDirectory() *Directory {
	return &Directory{
		owners:    make(map[domain.AccountRef]domain.AccountRef),
		referrers: make(map[domain.AccountRef]*domain.ReferrerInfo),
	}
}

// AddAccount 登记新账户（事件触发路径）
func (d *Directory) AddAccount(ref domain.AccountRef) {
	d.mu.Lock()
	if _, ok := d.owners[ref]; !ok {
		d.owners[ref] = ref
	}
	d.mu.Unlock()
}

// SetOwner 登记账户归属
func (d *Directory) SetOwner(ref, owner domain.AccountRef) {
	d.mu.Lock()
	d.owners[ref] = owner
	d.mu.Unlock()
}

// SetReferrer 登记账户的推荐人
func (d *Directory) SetReferrer(ref domain.AccountRef, info *domain.ReferrerInfo) {
	d.mu.Lock()
	d.referrers[ref] = info
	d.mu.Unlock()
}

// ResolveOwner 解析账户归属身份
func (d *Directory) ResolveOwner(ref domain.AccountRef) (domain.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if owner, ok := d.owners[ref]; ok {
		return domain.Identity{Owner: owner}, nil
	}
	return domain.Identity{Owner: ref}, nil
}

// Referrer 解析账户的推荐人记录（无推荐人返回 nil）
func (d *Directory) Referrer(ref domain.AccountRef) (*domain.ReferrerInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.referrers[ref], nil
}
