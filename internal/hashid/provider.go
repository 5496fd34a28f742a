package hashid

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
	"hashkey.local/internal/platform/metrics"
)

// Provider 按实体类型懒加载并缓存 codec。
//
// 缓存在进程生命周期内只增不删；同一类型的并发首次访问经 singleflight 合并，只构造一次。
type Provider struct {
	resolver *Resolver

	mu     sync.RWMutex
	codecs map[EntityType]Codec
	group  singleflight.Group
}

func NewProvider(resolver *Resolver) *Provider {
	return &Provider{
		resolver: resolver,
		codecs:   make(map[EntityType]Codec),
	}
}

// Get 返回实体类型对应的 codec，多次调用返回同一个实例。
func (p *Provider) Get(entity EntityType) (Codec, error) {
	if entity == "" {
		return nil, ErrEmptyEntity
	}
	if c, ok := p.lookup(entity); ok {
		return c, nil
	}

	v, err, _ := p.group.Do(string(entity), func() (any, error) {
		if c, ok := p.lookup(entity); ok {
			return c, nil
		}
		cfg := p.resolver.Resolve(entity)
		c, err := NewCodec(cfg)
		if err != nil {
			return nil, fmt.Errorf("hashid: build codec for %q: %w", entity, err)
		}

		p.mu.Lock()
		if existing, ok := p.codecs[entity]; ok {
			p.mu.Unlock()
			return existing, nil
		}
		p.codecs[entity] = c
		p.mu.Unlock()

		metrics.HashidCodecBuilds.WithLabelValues(string(entity)).Inc()
		slog.Debug("hashid codec built", "entity", entity, "driver", cfg.Driver, "min_length", cfg.MinLength)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Codec), nil
}

func (p *Provider) lookup(entity EntityType) (Codec, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.codecs[entity]
	return c, ok
}

// Warm 预先构造若干类型的 codec，启动时调用可以尽早暴露配置问题。
func (p *Provider) Warm(entities ...EntityType) error {
	for _, e := range entities {
		if _, err := p.Get(e); err != nil {
			return err
		}
	}
	return nil
}

// Len 返回已缓存的 codec 数量。
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.codecs)
}

// For 返回绑定到某个实体类型的编解码门面。
func (p *Provider) For(entity EntityType) *Hasher {
	return &Hasher{provider: p, entity: entity}
}
