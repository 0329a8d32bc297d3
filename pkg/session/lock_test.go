package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/kiosk/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, key string, sess *domain.Session) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, key string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (m *MockStore) Delete(ctx context.Context, key string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)   { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := domain.Identity{Username: fmt.Sprintf("user-%d", i)}
		_, _ = mgr.Update(ctx, id, func(*domain.Session) error { return nil })
		_ = mgr.Delete(ctx, id.Key())
	}

	lockCount := len(mgr.locks)
	t.Logf("Sessions Created: %d, Locks Leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
