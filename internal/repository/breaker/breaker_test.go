package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/prn-tf/folio/internal/config"
	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/repository"
)

// stubProjectRepository returns err from every call and counts calls.
type stubProjectRepository struct {
	err   error
	calls int
}

func (s *stubProjectRepository) Create(context.Context, *domain.Project) error {
	s.calls++
	return s.err
}

func (s *stubProjectRepository) GetByID(context.Context, uuid.UUID) (*domain.Project, error) {
	s.calls++
	return nil, s.err
}

func (s *stubProjectRepository) Update(context.Context, *domain.Project) error {
	s.calls++
	return s.err
}

func (s *stubProjectRepository) Delete(context.Context, uuid.UUID) error {
	s.calls++
	return s.err
}

func (s *stubProjectRepository) List(context.Context, bool) ([]*domain.Project, error) {
	s.calls++
	return nil, s.err
}

func testConfig() config.BreakerConfig {
	return config.BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Hour,
		FailureThreshold: 3,
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubProjectRepository{err: errors.New("connection refused")}
	b := New("test", testConfig(), zerolog.Nop())
	repos := Wrap(&repository.Repositories{Project: stub}, b)

	for i := 0; i < 3; i++ {
		_, err := repos.Project.List(context.Background(), false)
		if err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: error = %v, want underlying failure", i, err)
		}
	}

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	_, err := repos.Project.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if stub.calls != 3 {
		t.Errorf("calls = %d, want 3 (open circuit must not reach storage)", stub.calls)
	}
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	stub := &stubProjectRepository{err: repository.ErrNotFound}
	b := New("test", testConfig(), zerolog.Nop())
	repos := Wrap(&repository.Repositories{Project: stub}, b)

	for i := 0; i < 10; i++ {
		err := repos.Project.Delete(context.Background(), uuid.New())
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	}

	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}
}

func TestIsSuccessful(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, true},
		{repository.ErrNotFound, true},
		{repository.ErrDuplicate, true},
		{context.Canceled, true},
		{errors.New("disk I/O error"), false},
		{context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		if got := isSuccessful(tt.err); got != tt.want {
			t.Errorf("isSuccessful(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
