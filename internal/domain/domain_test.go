package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello, World!", "hello-world"},
		{"Hello, World! 2024", "hello-world-2024"},
		{"  leading and trailing  ", "leading-and-trailing"},
		{"Go   1.24 -- released", "go-1-24-released"},
		{"already-a-slug", "already-a-slug"},
		{"Café au lait", "caf-au-lait"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"ADMIN", RoleAdmin, false},
		{" reader ", RoleReader, false},
		{"owner", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRole) {
				t.Errorf("ParseRole(%q) error = %v, want ErrInvalidRole", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseRole(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	if !(&User{Role: RoleAdmin}).IsAdmin() || (&User{Role: RoleReader}).IsAdmin() {
		t.Error("IsAdmin disagrees with role")
	}
}

func TestParsePostStatus(t *testing.T) {
	if got, err := ParsePostStatus("published"); err != nil || got != PostStatusPublished {
		t.Errorf("ParsePostStatus(published) = %v, %v", got, err)
	}
	if _, err := ParsePostStatus("ARCHIVED"); !errors.Is(err, ErrInvalidPostStatus) {
		t.Errorf("ParsePostStatus(ARCHIVED) error = %v, want ErrInvalidPostStatus", err)
	}
}

func TestPost_Publish(t *testing.T) {
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Post{Status: PostStatusDraft}

	p.Publish(first)
	if !p.IsPublished() || p.PublishedAt == nil || !p.PublishedAt.Equal(first) {
		t.Fatalf("after Publish: status=%v publishedAt=%v", p.Status, p.PublishedAt)
	}

	p.Publish(first.Add(time.Hour))
	if !p.PublishedAt.Equal(first) {
		t.Errorf("second Publish moved PublishedAt to %v", p.PublishedAt)
	}
}

func TestFoldCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Building Secure APIs", "building secure apis"},
		{"Über Café", "über café"},
		{"ÜBER", "über"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FoldCase(tt.in); got != tt.want {
			t.Errorf("FoldCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Admin@Example.COM "); got != "admin@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestDomainError(t *testing.T) {
	tests := []struct {
		err  *DomainError
		want string
	}{
		{NewDomainError(ErrEmptySlug, "", "!!!"), "title must contain at least one letter or digit (!!!)"},
		{NewDomainError(ErrInvalidPostStatus, "must be DRAFT or PUBLISHED", "ARCHIVED"), "invalid post status: must be DRAFT or PUBLISHED (ARCHIVED)"},
		{NewDomainError(ErrUnpublish, "", ""), "a published post cannot return to draft"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		if !errors.Is(tt.err, tt.err.Err) {
			t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.err.Err)
		}
	}
}
