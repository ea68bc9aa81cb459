package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestProjectService() (*ProjectService, *MockProjectRepository) {
	repo := NewMockProjectRepository()
	svc := NewProjectService(repo, zerolog.Nop())
	clock := &testClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, repo
}

func TestProjectService_CreateDefaults(t *testing.T) {
	svc, _ := newTestProjectService()

	project, err := svc.Create(context.Background(), ProjectInput{
		Name:        "folio",
		Description: "This site",
		GithubURL:   strPtr("https://github.com/example/folio"),
		LiveURL:     strPtr("  "),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if project.Technologies == nil || len(project.Technologies) != 0 {
		t.Errorf("Technologies = %#v, want empty slice", project.Technologies)
	}
	if project.Featured {
		t.Error("Featured should default to false")
	}
	if project.DisplayOrder != 0 {
		t.Errorf("DisplayOrder = %d, want 0", project.DisplayOrder)
	}
	if project.LiveURL != nil {
		t.Errorf("LiveURL = %q, want nil for a blank link", *project.LiveURL)
	}
	if project.GithubURL == nil || *project.GithubURL != "https://github.com/example/folio" {
		t.Errorf("GithubURL = %v", project.GithubURL)
	}
}

func TestProjectService_CreateValidation(t *testing.T) {
	svc, repo := newTestProjectService()

	tests := []struct {
		name  string
		input ProjectInput
	}{
		{"missing name", ProjectInput{Description: "d"}},
		{"missing description", ProjectInput{Name: "n"}},
		{"blank name", ProjectInput{Name: " ", Description: "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.input); !errors.Is(err, ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}

	if len(repo.projects) != 0 {
		t.Errorf("repository holds %d projects, want 0", len(repo.projects))
	}
}

func TestProjectService_ListOrdering(t *testing.T) {
	svc, _ := newTestProjectService()
	ctx := context.Background()

	inputs := []ProjectInput{
		{Name: "c", Description: "d", DisplayOrder: 2},
		{Name: "a", Description: "d", DisplayOrder: 1, Featured: true},
		{Name: "b", Description: "d", DisplayOrder: 1},
	}
	for _, in := range inputs {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, p := range all {
		names = append(names, p.Name)
	}
	// Equal display order falls back to newest first.
	if diff := cmp.Diff([]string{"b", "a", "c"}, names); diff != "" {
		t.Errorf("List() order mismatch (-want +got):\n%s", diff)
	}

	featured, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("List(featured) error = %v", err)
	}
	if len(featured) != 1 || featured[0].Name != "a" {
		t.Errorf("List(featured) = %v", featured)
	}
}

func TestProjectService_UpdateReplacesFields(t *testing.T) {
	svc, _ := newTestProjectService()
	ctx := context.Background()

	created, err := svc.Create(ctx, ProjectInput{
		Name:         "old",
		Description:  "old",
		ImageURL:     strPtr("https://example.com/a.png"),
		Technologies: []string{"Go"},
		Featured:     true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, ProjectInput{
		Name:         "new",
		Description:  "new",
		Technologies: []string{"Go", " ", "SQLite"},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.ImageURL != nil {
		t.Error("omitted link must be cleared by a full update")
	}
	if updated.Featured {
		t.Error("Featured must be replaced")
	}
	if diff := cmp.Diff([]string{"Go", "SQLite"}, updated.Technologies); diff != "" {
		t.Errorf("Technologies mismatch (-want +got):\n%s", diff)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt must not change")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("UpdatedAt must advance")
	}
}

func TestProjectService_NotFound(t *testing.T) {
	svc, _ := newTestProjectService()
	ctx := context.Background()
	id := uuid.New()

	if _, err := svc.Get(ctx, id); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Get() error = %v, want ErrProjectNotFound", err)
	}
	if _, err := svc.Update(ctx, id, ProjectInput{Name: "n", Description: "d"}); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Update() error = %v, want ErrProjectNotFound", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Delete() error = %v, want ErrProjectNotFound", err)
	}
}

func TestProjectService_CreateRepositoryFailure(t *testing.T) {
	svc, repo := newTestProjectService()
	repo.createErr = errors.New("disk full")

	_, err := svc.Create(context.Background(), ProjectInput{Name: "n", Description: "d"})
	if !errors.Is(err, ErrInternalError) {
		t.Errorf("Create() error = %v, want ErrInternalError", err)
	}
}
