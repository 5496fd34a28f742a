package hashid

import (
	"fmt"
	"log/slog"

	"hashkey.local/internal/platform/metrics"
)

// Hasher 是绑定到单个实体类型的 id 编解码门面。
type Hasher struct {
	provider *Provider
	entity   EntityType
}

func (h *Hasher) Entity() EntityType {
	return h.entity
}

// Encode 把非负 id 编码成对外字符串；负数返回 ErrNegativeID。
func (h *Hasher) Encode(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeID, id)
	}
	c, err := h.provider.Get(h.entity)
	if err != nil {
		return "", err
	}
	return c.Encode(id)
}

// Decode 把对外字符串还原成 id。
// 空字符串不会触达 codec；无法解析的字符串返回 (0, false)，这不是错误。
// 一个 hash 里编码了多个数字时取第一个。
func (h *Hasher) Decode(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}
	c, err := h.provider.Get(h.entity)
	if err != nil {
		slog.Error("hashid codec unavailable", "entity", h.entity, "err", err)
		return 0, false
	}
	ids := c.Decode(value)
	if len(ids) == 0 {
		metrics.HashidDecodeFailures.WithLabelValues(string(h.entity)).Inc()
		return 0, false
	}
	return ids[0], true
}

// EncodeMany 逐个编码，保持顺序与长度。
func (h *Hasher) EncodeMany(ids []int64) ([]string, error) {
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		s, err := h.Encode(id)
		if err != nil {
			return nil, fmt.Errorf("encode ids[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// DecodeMany 逐个解码，无法解析的条目直接丢弃（不占位），
// 所以结果可能比输入短；保留下来的条目维持原有相对顺序。
func (h *Hasher) DecodeMany(values []string) []int64 {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		if id, ok := h.Decode(v); ok {
			out = append(out, id)
		}
	}
	return out
}
