package ranking

import (
	"errors"
	"fmt"
	"testing"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/models"
)

func rankedFixture(n int) []RankedService {
	ranked := make([]RankedService, n)
	for i := range ranked {
		ranked[i] = RankedService{
			Document: &models.SearchDocument{ID: fmt.Sprintf("svc-%03d", i)},
			Score:    float64(n - i),
		}
	}
	return ranked
}

func TestPaginator_Paginate(t *testing.T) {
	p := NewPaginator(10, 50)

	tests := []struct {
		name        string
		total       int
		page        int
		perPage     int
		wantLen     int
		wantPage    int
		wantPerPage int
		wantLast    int
		wantErr     bool
	}{
		{"first page default size", 25, 1, 0, 10, 1, 10, 3, false},
		{"zero page means first", 25, 0, 0, 10, 1, 10, 3, false},
		{"second page", 25, 2, 10, 10, 2, 10, 3, false},
		{"last partial page", 25, 3, 10, 5, 3, 10, 3, false},
		{"past the end is empty", 25, 9, 10, 0, 9, 10, 3, false},
		{"per page clamped to max", 200, 1, 500, 50, 1, 50, 4, false},
		{"negative per page uses default", 25, 1, -3, 10, 1, 10, 3, false},
		{"empty set", 0, 1, 10, 0, 1, 10, 1, false},
		{"negative page", 25, -1, 10, 0, 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Paginate(rankedFixture(tt.total), tt.page, tt.perPage)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Paginate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var verr *apierr.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if len(result.Data) != tt.wantLen {
				t.Errorf("len(Data) = %d, want %d", len(result.Data), tt.wantLen)
			}
			if result.Meta.CurrentPage != tt.wantPage {
				t.Errorf("CurrentPage = %d, want %d", result.Meta.CurrentPage, tt.wantPage)
			}
			if result.Meta.PerPage != tt.wantPerPage {
				t.Errorf("PerPage = %d, want %d", result.Meta.PerPage, tt.wantPerPage)
			}
			if result.Meta.LastPage != tt.wantLast {
				t.Errorf("LastPage = %d, want %d", result.Meta.LastPage, tt.wantLast)
			}
			if result.Meta.Total != tt.total {
				t.Errorf("Total = %d, want %d", result.Meta.Total, tt.total)
			}
		})
	}
}

func TestPaginator_PreservesOrder(t *testing.T) {
	p := NewPaginator(10, 50)
	result, err := p.Paginate(rankedFixture(25), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i, summary := range result.Data {
		want := fmt.Sprintf("svc-%03d", 10+i)
		if summary.ID != want {
			t.Fatalf("Data[%d].ID = %s, want %s", i, summary.ID, want)
		}
	}
}

func TestPaginator_PagesPartitionResultSet(t *testing.T) {
	p := NewPaginator(10, 50)
	ranked := rankedFixture(25)

	seen := make(map[string]int)
	for page := 1; page <= 3; page++ {
		result, err := p.Paginate(ranked, page, 10)
		if err != nil {
			t.Fatal(err)
		}
		for _, summary := range result.Data {
			seen[summary.ID]++
		}
	}
	if len(seen) != 25 {
		t.Errorf("pages covered %d distinct ids, want 25", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("id %s appeared %d times across pages", id, count)
		}
	}
}

func TestPaginator_Links(t *testing.T) {
	p := NewPaginator(10, 50)

	first, err := p.Paginate(rankedFixture(25), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if first.Links.Prev != nil {
		t.Error("first page must have no prev link")
	}
	if first.Links.Next == nil || *first.Links.Next != "?page=2" {
		t.Errorf("Next = %v, want ?page=2", first.Links.Next)
	}
	if first.Links.First != "?page=1" || first.Links.Last != "?page=3" {
		t.Errorf("First/Last = %q/%q", first.Links.First, first.Links.Last)
	}

	last, err := p.Paginate(rankedFixture(25), 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if last.Links.Next != nil {
		t.Error("last page must have no next link")
	}
	if last.Links.Prev == nil || *last.Links.Prev != "?page=2" {
		t.Errorf("Prev = %v, want ?page=2", last.Links.Prev)
	}
}
