package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
)

type mockReservationRepo struct {
	mock.Mock
}

func (m *mockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservationRepo) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *mockReservationRepo) FindByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reservation), args.Error(1)
}

func (m *mockReservationRepo) FindBetween(ctx context.Context, from, to time.Time) ([]*domain.Reservation, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reservation), args.Error(1)
}

func (m *mockReservationRepo) SetConfirmed(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockReservationRepo) LockDate(ctx context.Context, date time.Time) error {
	return m.Called(ctx, date).Error(0)
}

var (
	june10 = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	clock  = sharedApplication.FixedClock(time.Date(2024, time.June, 10, 14, 37, 0, 0, time.UTC))
)

func reservationAt(id int64, date time.Time, hour, minute, minutes int) *domain.Reservation {
	return domain.RehydrateReservation(id, 42, "olena", date, domain.NewTimeOfDay(hour, minute), minutes, "+380", false, date)
}

func TestAvailableSlotsHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("starts after now and skips booked intervals", func(t *testing.T) {
		repo := new(mockReservationRepo)
		repo.On("FindByDate", ctx, june10).Return([]*domain.Reservation{reservationAt(1, june10, 15, 0, 60)}, nil)

		slots, err := NewAvailableSlotsHandler(repo, clock).Handle(ctx, AvailableSlotsQuery{
			Date:            june10.Add(17 * time.Hour),
			DurationMinutes: 60,
		})

		require.NoError(t, err)
		require.NotEmpty(t, slots)
		assert.Equal(t, "16:00", slots[0].String())
		repo.AssertExpectations(t)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		repo := new(mockReservationRepo)
		repo.On("FindByDate", ctx, june10).Return(nil, errors.New("db down"))

		_, err := NewAvailableSlotsHandler(repo, clock).Handle(ctx, AvailableSlotsQuery{Date: june10, DurationMinutes: 60})

		assert.Error(t, err)
	})
}

func TestBookingWindowHandler(t *testing.T) {
	handler := NewBookingWindowHandler(clock)

	dates := handler.Handle()

	require.Len(t, dates, domain.WindowDays)
	assert.Equal(t, june10, dates[0])
	assert.True(t, handler.Contains(june10.AddDate(0, 0, 13)))
	assert.False(t, handler.Contains(june10.AddDate(0, 0, 14)))
}

func TestListReservationsHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("single day", func(t *testing.T) {
		repo := new(mockReservationRepo)
		repo.On("FindByDate", ctx, june10).Return([]*domain.Reservation{reservationAt(7, june10, 18, 30, 90)}, nil)

		dtos, err := NewListReservationsHandler(repo).Handle(ctx, ListReservationsQuery{From: june10})

		require.NoError(t, err)
		require.Len(t, dtos, 1)
		assert.Equal(t, int64(7), dtos[0].ID)
		assert.Equal(t, "18:30", dtos[0].Start)
		assert.Equal(t, "20:00", dtos[0].End)
		assert.Equal(t, 450, dtos[0].Price)
		repo.AssertNotCalled(t, "FindBetween", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("date range", func(t *testing.T) {
		repo := new(mockReservationRepo)
		to := june10.AddDate(0, 0, 6)
		repo.On("FindBetween", ctx, june10, to).Return([]*domain.Reservation{}, nil)

		dtos, err := NewListReservationsHandler(repo).Handle(ctx, ListReservationsQuery{From: june10, To: to})

		require.NoError(t, err)
		assert.Empty(t, dtos)
		repo.AssertExpectations(t)
	})
}
