package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Create(ctx context.Context, o *domain.Object) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockObjectStore) GetByID(ctx context.Context, id, practiceID uuid.UUID) (*domain.Object, error) {
	args := m.Called(ctx, id, practiceID)
	o, _ := args.Get(0).(*domain.Object)
	return o, args.Error(1)
}

func (m *mockObjectStore) Update(ctx context.Context, o *domain.Object) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockObjectStore) Delete(ctx context.Context, id, practiceID uuid.UUID) error {
	return m.Called(ctx, id, practiceID).Error(0)
}

func (m *mockObjectStore) List(ctx context.Context, practiceID uuid.UUID, f domain.ObjectFilter) ([]domain.Object, error) {
	args := m.Called(ctx, practiceID, f)
	objs, _ := args.Get(0).([]domain.Object)
	return objs, args.Error(1)
}

func (m *mockObjectStore) Resolve(ctx context.Context, ref domain.Reference) (*domain.Object, error) {
	args := m.Called(ctx, ref)
	o, _ := args.Get(0).(*domain.Object)
	return o, args.Error(1)
}

func (m *mockObjectStore) Referencing(ctx context.Context, practiceID uuid.UUID, ref domain.Reference) ([]domain.Object, error) {
	args := m.Called(ctx, practiceID, ref)
	objs, _ := args.Get(0).([]domain.Object)
	return objs, args.Error(1)
}

func (m *mockObjectStore) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func TestExpirerService_RunOnce(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	store := &mockObjectStore{}
	store.On("DeactivateExpired", mock.Anything, now).Return(int64(3), nil).Once()

	svc := NewExpirerService(store, zap.NewNop())
	svc.now = func() time.Time { return now }

	assert.Equal(t, int64(3), svc.RunOnce(context.Background()))
	store.AssertExpectations(t)
}

func TestExpirerService_RunOnceError(t *testing.T) {
	store := &mockObjectStore{}
	store.On("DeactivateExpired", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(0), errors.New("db down"))

	svc := NewExpirerService(store, zap.NewNop())
	assert.Zero(t, svc.RunOnce(context.Background()))
	store.AssertExpectations(t)
}

func TestExpirerService_StartStop(t *testing.T) {
	store := &mockObjectStore{}
	called := make(chan struct{}, 1)
	store.On("DeactivateExpired", mock.Anything, mock.Anything).Return(int64(0), nil).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	})

	svc := NewExpirerService(store, zap.NewNop())
	svc.SetInterval(10 * time.Millisecond)
	svc.Start()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("expirer did not run")
	}
	svc.Stop()
}
