package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	r := NewRedisRepository(client, "laptop")

	if err := r.PutAll(ctx, map[string]string{"sessionToken": "tok", "userType": "PROFESSOR", "userId": "7"}); err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if got := mr.HGet("rederly:session:laptop", "userType"); got != "PROFESSOR" {
		t.Errorf("hash field userType = %q, want PROFESSOR", got)
	}

	v, ok, err := r.Get(ctx, "userId")
	if err != nil || !ok || v != "7" {
		t.Errorf("Get userId = %q, %v, %v", v, ok, err)
	}
	if _, ok, err := r.Get(ctx, "missing"); err != nil || ok {
		t.Errorf("Get missing: ok=%v err=%v", ok, err)
	}

	all, err := r.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("GetAll len = %d, want 3", len(all))
	}

	if err := r.Delete(ctx, "sessionToken", "userType"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, _ = r.GetAll(ctx)
	if len(all) != 1 || all["userId"] != "7" {
		t.Errorf("after Delete = %v, want only userId", all)
	}
}

func TestRedisRepository_ClientsAreIsolated(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	a := NewRedisRepository(client, "a")
	b := NewRedisRepository(client, "b")

	if err := a.PutAll(ctx, map[string]string{"sessionToken": "tok"}); err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "sessionToken"); ok {
		t.Error("client b must not see client a's session")
	}
}

func TestRedisRepository_ServerDown(t *testing.T) {
	mr, client := newTestRedis(t)
	r := NewRedisRepository(client, "x")
	mr.Close()

	if err := r.PutAll(context.Background(), map[string]string{"sessionToken": "tok"}); err == nil {
		t.Fatal("PutAll should fail when redis is unreachable")
	}
	if _, _, err := r.Get(context.Background(), "sessionToken"); err == nil {
		t.Fatal("Get should fail when redis is unreachable")
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	if _, err := NewRedisClient("not-a-url://"); err == nil {
		t.Fatal("NewRedisClient should reject an invalid URL")
	}
}
