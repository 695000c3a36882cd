package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCacheSuite 对任意Cache实现执行通用读写测试
func runCacheSuite(t *testing.T, c Cache) {
	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, c.Set("upload:abc", `{"stage":"pending"}`, time.Minute))

		value, found, err := c.Get("upload:abc")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, `{"stage":"pending"}`, value)
	})

	t.Run("missing key", func(t *testing.T) {
		_, found, err := c.Get("upload:missing")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, c.Set("upload:dup", "first", time.Minute))
		require.NoError(t, c.Set("upload:dup", "second", time.Minute))

		value, found, err := c.Get("upload:dup")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "second", value)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Set("upload:del", "value", time.Minute))
		require.NoError(t, c.Delete("upload:del"))

		_, found, err := c.Get("upload:del")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, c.Set("upload:clear", "value", time.Minute))
		require.NoError(t, c.Clear())

		_, found, err := c.Get("upload:clear")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

// TestMemoryCache 测试内存缓存
func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)

	runCacheSuite(t, c)

	t.Run("expiration", func(t *testing.T) {
		require.NoError(t, c.Set("upload:ttl", "value", 30*time.Millisecond))

		_, found, err := c.Get("upload:ttl")
		require.NoError(t, err)
		assert.True(t, found)

		time.Sleep(60 * time.Millisecond)

		_, found, err = c.Get("upload:ttl")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

// TestRedisCache 测试Redis缓存
// 使用miniredis模拟Redis服务端
func TestRedisCache(t *testing.T) {
	server := miniredis.RunT(t)

	c, err := NewRedisCache(Config{
		Type:      "redis",
		RedisAddr: server.Addr(),
	})
	require.NoError(t, err)

	runCacheSuite(t, c)

	t.Run("expiration", func(t *testing.T) {
		require.NoError(t, c.Set("upload:ttl", "value", 50*time.Millisecond))

		// miniredis的时间需要手动推进
		server.FastForward(100 * time.Millisecond)

		_, found, err := c.Get("upload:ttl")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedisCache(Config{
			Type:      "redis",
			RedisAddr: "127.0.0.1:1",
		})
		assert.Error(t, err)
	})
}

// TestNewCache 测试缓存工厂
func TestNewCache(t *testing.T) {
	t.Run("memory type", func(t *testing.T) {
		c, err := NewCache(Config{Type: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &MemoryCache{}, c)
	})

	t.Run("unknown type falls back to memory", func(t *testing.T) {
		c, err := NewCache(Config{Type: "no-such-backend"})
		require.NoError(t, err)
		assert.IsType(t, &MemoryCache{}, c)
	})
}

// TestKey 测试缓存键生成
func TestKey(t *testing.T) {
	assert.Equal(t, "upload", Key("upload"))
	assert.Equal(t, "upload:abc", Key("upload", "abc"))
	assert.Equal(t, "upload:abc:status", Key("upload", "abc", "status"))
}
