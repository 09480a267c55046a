package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/classroom-service/internal/grades"
)

func TestStatsKey(t *testing.T) {
	assert.Equal(t, "stats:assessment:a1", statsKey("assessment", "a1"))
	assert.Equal(t, "stats:server:s1", statsKey("server", "s1"))
}

func TestRedisStatsCache_NilClientIsNoop(t *testing.T) {
	c := NewRedisStatsCache(nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	c.Set(ctx, "assessment", "a1", grades.Aggregate([]float64{7}))
	c.Invalidate(ctx, "a1", "s1")

	got, ok := c.Get(ctx, "assessment", "a1")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMemoryStatsCache_Invalidate(t *testing.T) {
	c := NewMemoryStatsCache()
	ctx := context.Background()

	c.Set(ctx, "assessment", "a1", grades.Aggregate([]float64{7}))
	c.Set(ctx, "server", "s1", grades.Aggregate([]float64{7, 3}))
	c.Set(ctx, "assessment", "a2", grades.Aggregate([]float64{1}))

	got, ok := c.Get(ctx, "server", "s1")
	require.True(t, ok)
	assert.Equal(t, 2, got.Count)

	c.Invalidate(ctx, "a1", "s1")

	_, ok = c.Get(ctx, "assessment", "a1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "server", "s1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "assessment", "a2")
	assert.True(t, ok)
}
