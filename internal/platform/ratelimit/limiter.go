package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule 是一条限流规则：同一个 subject（一般是客户端 IP）在 Window 内最多消耗 Limit。
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

func (r Rule) key(subject string) string {
	return "rl:" + r.Name + ":" + subject
}

// Decision 是一次检查的结果；RetryAfter 只在被拒绝时有意义。
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// 滑动窗口：ZSET 里每个 member 是一次消耗，score 是毫秒时间戳。
// cost 个 member 要么全部写入，要么一个都不留。
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]
local cost = tonumber(ARGV[5])

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
local used = redis.call("ZCARD", key)
if used + cost <= limit then
  for i = 1, cost do
    redis.call("ZADD", key, now, member .. ":" .. i)
  end
  redis.call("PEXPIRE", key, window)
  return {1, limit - used - cost, 0}
end

local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] ~= nil then
  local retryAfter = (tonumber(oldest[2]) + window) - now
  if retryAfter < 0 then retryAfter = 0 end
  return {0, limit - used, retryAfter}
end
return {0, 0, window}
`)

var ErrInvalidCost = errors.New("ratelimit: cost must be > 0")

type Limiter struct {
	client *redis.Client
	seq    atomic.Uint64
	now    func() time.Time
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client, now: time.Now}
}

// Allow 为 subject 消耗 cost 个配额。
// 批量接口（?ids=a,b,c）按 token 个数计 cost，这样一次请求塞 100 个 id 和
// 100 次单查消耗一样多，枚举 id 的速度只取决于配额。
func (l *Limiter) Allow(ctx context.Context, rule Rule, subject string, cost int) (Decision, error) {
	if cost <= 0 {
		return Decision{}, ErrInvalidCost
	}
	if cost > rule.Limit {
		return Decision{Allowed: false, RetryAfter: rule.Window}, nil
	}
	nowMS := l.now().UnixMilli()
	// member 必须每次唯一，否则 ZADD 会覆盖；同一毫秒内靠序列号区分
	member := strconv.FormatInt(nowMS, 10) + "-" + strconv.FormatUint(l.seq.Add(1), 10)

	res, err := slidingWindow.Run(ctx, l.client, []string{rule.key(subject)},
		nowMS, rule.Window.Milliseconds(), rule.Limit, member, cost).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit %s: %w", rule.Name, err)
	}
	if len(res) < 3 {
		return Decision{}, fmt.Errorf("ratelimit %s: unexpected script result %v", rule.Name, res)
	}
	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}
