package hashid

import (
	"fmt"
	"sort"
)

const (
	// DefaultConnection 是 Settings.Default 为空时使用的连接名。
	DefaultConnection = "main"

	// DefaultAlphabet 与 hashids 库默认字母表一致。
	DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"
)

// EntityType 标识一类实体（例如 "shortlink"、"user"），同时是配置覆盖和 codec 缓存的 key。
type EntityType string

// CodecConfig 描述一个 codec 连接。
//
// Driver 为空时使用 hashids；Alphabet 为空时使用 DefaultAlphabet。
type CodecConfig struct {
	Salt      string `yaml:"salt"`
	Alphabet  string `yaml:"alphabet"`
	MinLength int    `yaml:"length"`
	Driver    string `yaml:"driver"`
}

// Settings 是启动时读取一次的配置面：Default 指向 Connections 中的默认连接，
// 名字与某个 EntityType 相同的连接即为该类型的覆盖配置。
type Settings struct {
	Default     string                 `yaml:"default"`
	Connections map[string]CodecConfig `yaml:"connections"`
}

func (c CodecConfig) withDefaults() CodecConfig {
	if c.Alphabet == "" {
		c.Alphabet = DefaultAlphabet
	}
	if c.Driver == "" {
		c.Driver = DriverHashids
	}
	return c
}

func (c CodecConfig) validate() error {
	if c.MinLength < 0 {
		return fmt.Errorf("negative length %d", c.MinLength)
	}
	// 直接构造一次：字母表长度/重复字符/空格等规则以底层库为准
	if _, err := NewCodec(c.withDefaults()); err != nil {
		return err
	}
	return nil
}

// Resolver 为每个实体类型计算生效的 codec 配置。
type Resolver struct {
	base        CodecConfig
	connections map[string]CodecConfig
}

// NewResolver 校验 Settings 并返回 Resolver。
// 缺少默认连接或任一连接非法都会返回错误，调用方应在启动阶段直接退出。
func NewResolver(s Settings) (*Resolver, error) {
	name := s.Default
	if name == "" {
		name = DefaultConnection
	}
	base, ok := s.Connections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingDefault, name)
	}

	names := make([]string, 0, len(s.Connections))
	for n := range s.Connections {
		names = append(names, n)
	}
	sort.Strings(names)

	connections := make(map[string]CodecConfig, len(s.Connections))
	for _, n := range names {
		c := s.Connections[n]
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("%w: connection %q: %v", ErrInvalidConfig, n, err)
		}
		connections[n] = c
	}

	return &Resolver{base: base, connections: connections}, nil
}

// Resolve 返回实体类型的生效配置：有同名覆盖用覆盖，否则用默认连接；
// salt 一律加上类型名前缀，保证不同类型即使共用同一套配置也不会编码出相同的字符串。
func (r *Resolver) Resolve(entity EntityType) CodecConfig {
	cfg, ok := r.connections[string(entity)]
	if !ok {
		cfg = r.base
	}
	cfg.Salt = string(entity) + cfg.Salt
	return cfg.withDefaults()
}

// UnsaltedConnections 返回 salt 为空的连接名（已排序）。
// 这些连接只剩实体类型名做 salt，编码结果可以被任何人复现。
func (s Settings) UnsaltedConnections() []string {
	var names []string
	for n, c := range s.Connections {
		if c.Salt == "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
