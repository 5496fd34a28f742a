package hashid

import (
	"fmt"
	"math"

	"github.com/speps/go-hashids/v2"
	"github.com/sqids/sqids-go"
)

const (
	DriverHashids = "hashids"
	DriverSqids   = "sqids"
)

// Codec 是可逆的 整数 <-> 字符串 编解码器，构造后不可变，可并发使用。
// Decode 对非法输入返回空切片，而不是错误。
type Codec interface {
	Encode(id int64) (string, error)
	Decode(value string) []int64
}

// NewCodec 按 cfg.Driver 构造 codec。cfg 应已填好默认值（见 Resolver.Resolve）。
func NewCodec(cfg CodecConfig) (Codec, error) {
	switch cfg.Driver {
	case DriverHashids, "":
		return newHashidsCodec(cfg)
	case DriverSqids:
		return newSqidsCodec(cfg)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

type hashidsCodec struct {
	h *hashids.HashID
}

func newHashidsCodec(cfg CodecConfig) (*hashidsCodec, error) {
	hd := hashids.NewData()
	hd.Salt = cfg.Salt
	hd.MinLength = cfg.MinLength
	if cfg.Alphabet != "" {
		hd.Alphabet = cfg.Alphabet
	}
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, err
	}
	return &hashidsCodec{h: h}, nil
}

func (c *hashidsCodec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", ErrNegativeID
	}
	return c.h.EncodeInt64([]int64{id})
}

func (c *hashidsCodec) Decode(value string) []int64 {
	// DecodeInt64WithError 内部会重新编码做一致性校验，外来/篡改过的字符串会返回 error
	ids, err := c.h.DecodeInt64WithError(value)
	if err != nil {
		return nil
	}
	return ids
}

// sqids 没有 salt 的概念：用 salt 对字母表做确定性洗牌，得到每个实体类型独立的字母表。
type sqidsCodec struct {
	s *sqids.Sqids
}

func newSqidsCodec(cfg CodecConfig) (*sqidsCodec, error) {
	if cfg.MinLength > math.MaxUint8 {
		return nil, fmt.Errorf("sqids length must be <= %d, got %d", math.MaxUint8, cfg.MinLength)
	}
	alphabet := cfg.Alphabet
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	s, err := sqids.New(sqids.Options{
		Alphabet:  saltShuffle(alphabet, cfg.Salt),
		MinLength: uint8(cfg.MinLength),
	})
	if err != nil {
		return nil, err
	}
	return &sqidsCodec{s: s}, nil
}

func (c *sqidsCodec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", ErrNegativeID
	}
	return c.s.Encode([]uint64{uint64(id)})
}

func (c *sqidsCodec) Decode(value string) []int64 {
	nums := c.s.Decode(value)
	if len(nums) == 0 {
		return nil
	}
	// 同一组数字只接受规范编码，避免多个字符串指向同一个 id
	canonical, err := c.s.Encode(nums)
	if err != nil || canonical != value {
		return nil
	}
	ids := make([]int64, 0, len(nums))
	for _, n := range nums {
		if n > math.MaxInt64 {
			return nil
		}
		ids = append(ids, int64(n))
	}
	return ids
}

// saltShuffle 是 hashids 的 consistent shuffle：同样的 alphabet+salt 总是得到同样的排列。
func saltShuffle(alphabet, salt string) string {
	if salt == "" {
		return alphabet
	}
	a := []byte(alphabet)
	for i, v, p := len(a)-1, 0, 0; i > 0; i, v = i-1, v+1 {
		v %= len(salt)
		c := int(salt[v])
		p += c
		j := (c + v + p) % i
		a[i], a[j] = a[j], a[i]
	}
	return string(a)
}
