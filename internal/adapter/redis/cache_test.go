package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartmarshall/tilawah/internal/adapter/cloud"
	"github.com/heartmarshall/tilawah/internal/adapter/redis"
	"github.com/heartmarshall/tilawah/internal/config"
)

var (
	once      sync.Once
	sharedAdr string
	initErr   error
)

func setupRedis(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("redis container tests skipped in -short mode")
	}

	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections"),
			},
			Started: true,
		})
		if err != nil {
			initErr = err
			return
		}
		host, err := c.Host(ctx)
		if err != nil {
			initErr = err
			return
		}
		port, err := c.MappedPort(ctx, "6379")
		if err != nil {
			initErr = err
			return
		}
		sharedAdr = host + ":" + port.Port()
	})
	if initErr != nil {
		t.Fatalf("start redis: %v", initErr)
	}

	client, err := redis.Connect(context.Background(), config.RedisConfig{Addr: sharedAdr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSnapshotCache_RoundTrip(t *testing.T) {
	client := setupRedis(t)
	cache := redis.NewSnapshotCache(client, time.Minute)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, "u-roundtrip"); err != nil || ok {
		t.Fatalf("Get on empty cache: ok=%v err=%v", ok, err)
	}

	snap := cloud.Snapshot{
		Bookmarks: []cloud.Bookmark{{SurahID: 2, AyahNumber: 255, UpdatedAt: 7}},
		Settings:  &cloud.Settings{Theme: "dark", UpdatedAt: 3},
	}
	if err := cache.Set(ctx, "u-roundtrip", snap); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := cache.Get(ctx, "u-roundtrip")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got.Bookmarks) != 1 || got.Bookmarks[0].AyahNumber != 255 {
		t.Errorf("bookmarks: %+v", got.Bookmarks)
	}
	if got.Settings == nil || got.Settings.Theme != "dark" {
		t.Errorf("settings: %+v", got.Settings)
	}

	if err := cache.Invalidate(ctx, "u-roundtrip"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "u-roundtrip"); ok {
		t.Error("snapshot still cached after Invalidate")
	}
}

func TestSnapshotCache_CorruptEntryIsMiss(t *testing.T) {
	client := setupRedis(t)
	cache := redis.NewSnapshotCache(client, time.Minute)
	ctx := context.Background()

	if err := client.Set(ctx, redis.SnapshotKey("u-corrupt"), "{not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok, err := cache.Get(ctx, "u-corrupt"); err != nil || ok {
		t.Fatalf("Get corrupt: ok=%v err=%v", ok, err)
	}
	if n, _ := client.Exists(ctx, redis.SnapshotKey("u-corrupt")).Result(); n != 0 {
		t.Error("corrupt entry was not dropped")
	}
}

func TestSnapshotCache_TTL(t *testing.T) {
	client := setupRedis(t)
	cache := redis.NewSnapshotCache(client, 30*time.Second)
	ctx := context.Background()

	if err := cache.Set(ctx, "u-ttl", cloud.Snapshot{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ttl, err := client.TTL(ctx, redis.SnapshotKey("u-ttl")).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > 30*time.Second {
		t.Errorf("ttl: got %s, want (0, 30s]", ttl)
	}
}
