package hashid

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hashkey.local/internal/platform/metrics"
)

func TestHasher_KnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		salt   string
		length int
		entity EntityType
		want   map[int64]string
	}{
		{
			// salt 就是实体类型本身，与其它语言的 hashids 实现逐字节一致
			name:   "namespaced entity, empty base salt",
			salt:   "",
			length: 2,
			entity: `CodersCantina\Hashids\Foo`,
			want:   map[int64]string{1: "Za", 2: "wy", 3: "Oo"},
		},
		{
			name:   "empty base salt",
			salt:   "",
			length: 2,
			entity: "shortlink",
			want:   map[int64]string{1: "RB", 2: "Np", 3: "Y6"},
		},
		{
			name:   "shortlink with base salt",
			salt:   "test-salt",
			length: 2,
			entity: "shortlink",
			want:   map[int64]string{0: "0z", 1: "Zo", 2: "QX", 3: "Nm", 42: "dG"},
		},
		{
			name:   "user with base salt",
			salt:   "test-salt",
			length: 2,
			entity: "user",
			want:   map[int64]string{0: "7w", 1: "nD", 2: "5b", 3: "04", 42: "Lg"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestProvider(t, testSettings(tt.salt, tt.length)).For(tt.entity)
			for id, want := range tt.want {
				got, err := h.Encode(id)
				require.NoError(t, err)
				assert.Equal(t, want, got, "encode %d", id)

				decoded, ok := h.Decode(want)
				require.True(t, ok, "decode %q", want)
				assert.Equal(t, id, decoded)
			}
		})
	}
}

func TestHasher_NamespacedEntityMany(t *testing.T) {
	h := newTestProvider(t, testSettings("", 2)).For(`CodersCantina\Hashids\Foo`)

	got, err := h.EncodeMany([]int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Za", "wy", "Oo"}, got)
	assert.Equal(t, []int64{1, 2, 3}, h.DecodeMany([]string{"Za", "wy", "Oo"}))

	// base salt 一变，同一个实体类型的输出就完全不同
	other := newTestProvider(t, testSettings("your-salt-string", 2)).For(`CodersCantina\Hashids\Foo`)
	got, err = other.EncodeMany([]int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"LQ", "Qm", "EP"}, got)
}

func TestHasher_EntityTypesDoNotCollide(t *testing.T) {
	p := newTestProvider(t, testSettings("test-salt", 2))
	links, users := p.For("shortlink"), p.For("user")

	for _, id := range []int64{0, 1, 2, 3, 42} {
		a, err := links.Encode(id)
		require.NoError(t, err)
		b, err := users.Encode(id)
		require.NoError(t, err)
		assert.NotEqual(t, a, b, "id %d", id)
	}
}

func TestHasher_OverrideConnection(t *testing.T) {
	s := testSettings("base", 2)
	s.Connections["user"] = CodecConfig{Salt: "test-salt", MinLength: 8}
	p := newTestProvider(t, s)

	got, err := p.For("user").Encode(1)
	require.NoError(t, err)
	assert.Equal(t, "PzKnDknJ", got)
}

func TestHasher_DecodeAbsentOrInvalid(t *testing.T) {
	p := newTestProvider(t, testSettings("test-salt", 2))
	h := p.For("shortlink")

	_, ok := h.Decode("")
	assert.False(t, ok)
	assert.Zero(t, p.Len(), "empty input must not touch the codec")

	for _, in := range []string{"invalid", "also-invalid", "Zo!"} {
		_, ok := h.Decode(in)
		assert.False(t, ok, in)
	}
}

func TestHasher_DecodeMultiValueHashTakesFirst(t *testing.T) {
	h := newTestProvider(t, testSettings("this is my salt", 0)).For("x")
	c, err := NewCodec(CodecConfig{Salt: "xthis is my salt", Alphabet: DefaultAlphabet})
	require.NoError(t, err)
	multi, err := c.(*hashidsCodec).h.EncodeInt64([]int64{7, 8, 9})
	require.NoError(t, err)

	id, ok := h.Decode(multi)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestHasher_EncodeNegative(t *testing.T) {
	h := newTestProvider(t, testSettings("test-salt", 2)).For("shortlink")
	_, err := h.Encode(-5)
	require.ErrorIs(t, err, ErrNegativeID)

	_, err = h.EncodeMany([]int64{1, -1})
	require.ErrorIs(t, err, ErrNegativeID)
}

func TestHasher_EncodeMany(t *testing.T) {
	h := newTestProvider(t, testSettings("test-salt", 2)).For("shortlink")

	got, err := h.EncodeMany([]int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zo", "QX", "Nm"}, got)

	empty, err := h.EncodeMany(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHasher_DecodeMany(t *testing.T) {
	p := newTestProvider(t, testSettings("test-salt", 2))
	h := p.For("shortlink")

	assert.Equal(t, []int64{1, 2, 3}, h.DecodeMany([]string{"Zo", "QX", "Nm"}))
	assert.Equal(t, []int64{1}, h.DecodeMany([]string{"invalid", "Zo", "also-invalid"}))
	assert.Equal(t, []int64{3, 1}, h.DecodeMany([]string{"Nm", "", "Zo"}))

	empty := h.DecodeMany(nil)
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestHasher_DecodeFailuresAreCounted(t *testing.T) {
	h := newTestProvider(t, testSettings("test-salt", 2)).For("decode-failure-entity")
	counter := metrics.HashidDecodeFailures.WithLabelValues("decode-failure-entity")
	before := testutil.ToFloat64(counter)

	h.DecodeMany([]string{"not-a-hash", "", "also-not"})

	// 空字符串不计入
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
