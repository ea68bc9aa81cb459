package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/repository"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*domain.User
	creates   int
	getErr    error
	createErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	m.creates++
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

// MockPostRepository is a mock implementation of repository.PostRepository.
// It stores copies so services cannot mutate persisted state by accident.
type MockPostRepository struct {
	mu      sync.Mutex
	posts   map[uuid.UUID]*domain.Post
	listErr error
	// skipExistsCheck makes ExistsBySlug always report false, simulating a
	// stale read in a check-then-insert race.
	skipExistsCheck bool
}

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{posts: make(map[uuid.UUID]*domain.Post)}
}

func (m *MockPostRepository) Create(ctx context.Context, post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == post.Slug {
			return repository.ErrDuplicate
		}
	}
	clone := *post
	m.posts[post.ID] = &clone
	return nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPostRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	if m.skipExistsCheck {
		return false, nil
	}
	_, err := m.GetBySlug(ctx, slug)
	return err == nil, nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *post
	m.posts[post.ID] = &clone
	return nil
}

func (m *MockPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *MockPostRepository) List(ctx context.Context, opts repository.PostListOptions) (*repository.ListResult[domain.Post], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	query := domain.FoldCase(opts.Search)
	var matched []*domain.Post
	for _, p := range m.posts {
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		if !matchesQuery(p, query) {
			continue
		}
		clone := *p
		matched = append(matched, &clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].CreatedAt, matched[j].CreatedAt
		if opts.OrderBy == repository.OrderByPublishedAt && matched[i].PublishedAt != nil && matched[j].PublishedAt != nil {
			a, b = *matched[i].PublishedAt, *matched[j].PublishedAt
		}
		if !a.Equal(b) {
			return a.After(b)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	total := int64(len(matched))
	start := min(opts.Offset, len(matched))
	end := len(matched)
	if opts.Limit > 0 {
		end = min(start+opts.Limit, len(matched))
	}

	return &repository.ListResult[domain.Post]{
		Items:  matched[start:end],
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// matchesQuery mirrors the stores' search: the folded query occurs in the
// folded title, excerpt or content.
func matchesQuery(p *domain.Post, folded string) bool {
	if folded == "" {
		return true
	}
	return strings.Contains(domain.FoldCase(p.Title), folded) ||
		strings.Contains(domain.FoldCase(p.Excerpt), folded) ||
		strings.Contains(domain.FoldCase(p.Content), folded)
}

func (m *MockPostRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}

// MockProjectRepository is a mock implementation of repository.ProjectRepository.
type MockProjectRepository struct {
	projects  map[uuid.UUID]*domain.Project
	createErr error
}

func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{projects: make(map[uuid.UUID]*domain.Project)}
}

func (m *MockProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	if m.createErr != nil {
		return m.createErr
	}
	clone := *project
	m.projects[project.ID] = &clone
	return nil
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	if p, ok := m.projects[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	if _, ok := m.projects[project.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *project
	m.projects[project.ID] = &clone
	return nil
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *MockProjectRepository) List(ctx context.Context, featuredOnly bool) ([]*domain.Project, error) {
	var result []*domain.Project
	for _, p := range m.projects {
		if featuredOnly && !p.Featured {
			continue
		}
		clone := *p
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DisplayOrder != result[j].DisplayOrder {
			return result[i].DisplayOrder < result[j].DisplayOrder
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
