package repository

import (
	"testing"

	"github.com/agency-cms-api/internal/models"
)

func TestWhereBuilder_NumbersPlaceholders(t *testing.T) {
	var w whereBuilder
	w.add("status = ?", "published")
	w.add("(title ILIKE ? OR content ILIKE ?)", "%go%", "%go%")

	if got, want := w.String(), " WHERE status = $1 AND (title ILIKE $2 OR content ILIKE $3)"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if len(w.args) != 3 {
		t.Fatalf("Expected 3 args, got %d", len(w.args))
	}

	limit := w.arg(10)
	if limit != "$4" {
		t.Errorf("Expected $4, got %s", limit)
	}
}

func TestWhereBuilder_Empty(t *testing.T) {
	var w whereBuilder
	if w.String() != "" {
		t.Errorf("Expected empty clause, got %q", w.String())
	}
	if w.arg(1) != "$1" {
		t.Error("Expected first arg to be $1")
	}
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	if got := likePattern("50%_off"); got != `%50\%\_off%` {
		t.Errorf("Unexpected pattern %q", got)
	}
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in   models.Page
		want models.Page
	}{
		{models.Page{}, models.Page{Limit: 12}},
		{models.Page{Limit: 500, Offset: -4}, models.Page{Limit: models.MaxPageSize}},
		{models.Page{Limit: 5, Offset: 10}, models.Page{Limit: 5, Offset: 10}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(12); got != tt.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestNewPagination(t *testing.T) {
	p := models.NewPagination(models.Page{Limit: 10, Offset: 20}, 45)
	if p.Page != 3 || p.Pages != 5 || !p.HasMore {
		t.Errorf("Unexpected pagination %+v", p)
	}

	p = models.NewPagination(models.Page{Limit: 10, Offset: 40}, 45)
	if p.HasMore {
		t.Error("Last page should not have more")
	}
}
