package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type payload struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// MemoryCacheSuite exercises the in-memory response cache with a fake clock
// so TTL expiry is deterministic.
type MemoryCacheSuite struct {
	suite.Suite
	clock *clockwork.FakeClock
	cache *Memory
	ctx   context.Context
}

func (s *MemoryCacheSuite) SetupTest() {
	s.clock = clockwork.NewFakeClock()
	s.cache = NewMemory(WithClock(s.clock))
	s.ctx = context.Background()
}

func TestMemoryCacheSuite(t *testing.T) {
	suite.Run(t, new(MemoryCacheSuite))
}

func (s *MemoryCacheSuite) TestRoundTrip() {
	in := payload{Name: "times square", Score: 0.9}
	require.NoError(s.T(), s.cache.Set(s.ctx, "geocode:a", in, time.Hour))

	var out payload
	hit, err := s.cache.Get(s.ctx, "geocode:a", &out)
	require.NoError(s.T(), err)
	assert.True(s.T(), hit)
	assert.Equal(s.T(), in, out)
}

func (s *MemoryCacheSuite) TestMiss() {
	var out payload
	hit, err := s.cache.Get(s.ctx, "missing", &out)
	require.NoError(s.T(), err)
	assert.False(s.T(), hit)
}

func (s *MemoryCacheSuite) TestExpiry() {
	require.NoError(s.T(), s.cache.Set(s.ctx, "route:a", payload{Name: "route"}, 30*time.Minute))

	s.clock.Advance(29 * time.Minute)
	var out payload
	hit, err := s.cache.Get(s.ctx, "route:a", &out)
	require.NoError(s.T(), err)
	assert.True(s.T(), hit, "entry should survive inside its TTL")

	s.clock.Advance(2 * time.Minute)
	hit, err = s.cache.Get(s.ctx, "route:a", &out)
	require.NoError(s.T(), err)
	assert.False(s.T(), hit, "entry should expire after its TTL")
}

func (s *MemoryCacheSuite) TestOverwriteResetsTTL() {
	require.NoError(s.T(), s.cache.Set(s.ctx, "k", payload{Name: "old"}, 10*time.Minute))
	s.clock.Advance(9 * time.Minute)
	require.NoError(s.T(), s.cache.Set(s.ctx, "k", payload{Name: "new"}, 10*time.Minute))
	s.clock.Advance(9 * time.Minute)

	var out payload
	hit, err := s.cache.Get(s.ctx, "k", &out)
	require.NoError(s.T(), err)
	assert.True(s.T(), hit)
	assert.Equal(s.T(), "new", out.Name)
}

func (s *MemoryCacheSuite) TestSliceValues() {
	in := []payload{{Name: "a"}, {Name: "b"}}
	require.NoError(s.T(), s.cache.Set(s.ctx, "places:q", in, time.Minute))

	var out []payload
	hit, err := s.cache.Get(s.ctx, "places:q", &out)
	require.NoError(s.T(), err)
	assert.True(s.T(), hit)
	assert.Equal(s.T(), in, out)
}
