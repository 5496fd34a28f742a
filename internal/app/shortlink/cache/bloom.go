package cache

import (
	"encoding/binary"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// IDFilter 是已存在短链 id 的布隆过滤器。
// 一个 token 即使能解码，如果 id 从未创建过，也不需要打到缓存和数据库。
type IDFilter struct {
	filter *bloom.BloomFilter
	mu     sync.RWMutex
}

// NewIDFilter 创建布隆过滤器
// expectedItems: 预期存储的元素数量
// falsePositiveRate: 误判率（建议 0.01 即 1%）
func NewIDFilter(expectedItems uint, falsePositiveRate float64) *IDFilter {
	return &IDFilter{
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

func idKey(id int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return buf[:]
}

func (f *IDFilter) Add(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Add(idKey(id))
}

// MightExist 返回 false 表示一定不存在，true 表示可能存在（有误判率）。
func (f *IDFilter) MightExist(id int64) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.Test(idKey(id))
}

// Count 返回已添加的元素数量（估算）
func (f *IDFilter) Count() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.ApproximatedSize()
}
