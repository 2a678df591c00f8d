package validation

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Créer un site Web rapide!  ", "creer-un-site-web-rapide"},
		{"Déjà vu --- encore", "deja-vu-encore"},
		{"Go 1.23 release", "go-1-23-release"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Slugify(tt.input)
			if got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if got != "" && !IsValidSlug(got) {
				t.Errorf("Slugify(%q) produced invalid slug %q", tt.input, got)
			}
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"a", "web-design", "offre-2024"}
	invalid := []string{"", "Web", "trailing-", "-leading", "double--dash", "espace ici"}

	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("Expected %q to be a valid slug", s)
		}
	}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("Expected %q to be an invalid slug", s)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"550E8400-E29B-41D4-A716-446655440000", true},
		{"abc", false},
		{"", false},
		{"550e8400-e29b-41d4-a716-44665544000z", false},
	}

	for _, tt := range tests {
		if got := IsValidUUID(tt.input); got != tt.want {
			t.Errorf("IsValidUUID(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEmailHelpers(t *testing.T) {
	if !IsValidEmail("jane.doe+news@example.fr") {
		t.Error("Expected valid email")
	}
	if IsValidEmail("not-an-email") {
		t.Error("Expected invalid email")
	}
	if got := NormalizeEmail("  Jane@Example.COM "); got != "jane@example.com" {
		t.Errorf("Expected normalized email, got %q", got)
	}
}

type bindingSample struct {
	Title    string `json:"title" binding:"required"`
	Slug     string `json:"slug" binding:"omitempty,slug"`
	Username string `json:"username" binding:"omitempty,username"`
}

func TestRegisterValidators(t *testing.T) {
	if err := RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators failed: %v", err)
	}

	if err := binding.Validator.ValidateStruct(&bindingSample{Title: "ok", Slug: "good-slug", Username: "jane_doe"}); err != nil {
		t.Errorf("Expected valid sample, got %v", err)
	}

	err := binding.Validator.ValidateStruct(&bindingSample{Slug: "Bad Slug", Username: "x"})
	if err == nil {
		t.Fatal("Expected validation error")
	}

	fields := FieldErrors(err)
	if len(fields) != 3 {
		t.Fatalf("Expected 3 field errors, got %d: %+v", len(fields), fields)
	}
	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	if got["title"] != "is required" {
		t.Errorf("Expected title required, got %q", got["title"])
	}
	if !strings.Contains(got["slug"], "lowercase") {
		t.Errorf("Expected slug message, got %q", got["slug"])
	}
	if _, ok := got["username"]; !ok {
		t.Error("Expected username error")
	}
}

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()

	rich := s.SanitizeHTML(`<p>Hello <script>alert(1)</script><a href="https://example.com">link</a></p>`)
	if strings.Contains(rich, "<script>") {
		t.Errorf("Expected script to be removed, got %q", rich)
	}
	if !strings.Contains(rich, "nofollow") {
		t.Errorf("Expected nofollow on links, got %q", rich)
	}
	if !strings.Contains(rich, "<p>") {
		t.Errorf("Expected paragraph to be kept, got %q", rich)
	}

	plain := s.StripTags(`  <b>Bonjour</b> & <i>merci</i>  `)
	if plain != "Bonjour & merci" {
		t.Errorf("Expected tags stripped, got %q", plain)
	}
}
