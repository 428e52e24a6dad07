// Package projection derives the paged, sorted contact list shown to a user.
// Everything here is a pure function of its inputs.
package projection

import (
	"cmp"
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/msomdec/contact-book/internal/domain"
)

// DefaultPageSize is used when Params.PageSize is not positive.
const DefaultPageSize = 5

type SortKey string

const (
	SortByOrder SortKey = "order"
	SortByName  SortKey = "name"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Sort is the column and direction the list is ordered by.
type Sort struct {
	Key SortKey
	Dir SortDir
}

// DefaultSort orders by rank, ascending.
var DefaultSort = Sort{Key: SortByOrder, Dir: Asc}

// Toggle returns the sort after the user clicks key: the same key flips the
// direction, another key switches to it ascending.
func (s Sort) Toggle(key SortKey) Sort {
	if s.Key == key {
		if s.Dir == Asc {
			return Sort{Key: key, Dir: Desc}
		}
		return Sort{Key: key, Dir: Asc}
	}
	return Sort{Key: key, Dir: Asc}
}

// ParseSort validates query or signal values. Empty values fall back to
// DefaultSort.
func ParseSort(key, dir string) (Sort, error) {
	s := DefaultSort
	switch SortKey(key) {
	case "":
	case SortByOrder, SortByName:
		s.Key = SortKey(key)
	default:
		return Sort{}, fmt.Errorf("unknown sort key %q", key)
	}
	switch SortDir(dir) {
	case "":
	case Asc, Desc:
		s.Dir = SortDir(dir)
	default:
		return Sort{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return s, nil
}

// Params selects one page of an owner's contacts.
type Params struct {
	Sort     Sort
	Page     int
	PageSize int
	// Locale drives name collation. The zero tag collates by the root locale.
	Locale language.Tag
}

// Page is one projected page.
type Page struct {
	Items      []domain.Contact
	TotalPages int
	TotalItems int
	// StartIndex is the zero-based position of Items[0] in the full sorted
	// list, used for row numbering.
	StartIndex int
}

// Project filters contacts to owner, sorts them stably and returns the
// requested page. A page past the end yields no items. contacts is not
// modified.
func Project(contacts []domain.Contact, owner string, p Params) Page {
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := max(p.Page, 1)

	var mine []domain.Contact
	for _, c := range contacts {
		if c.UserID == owner {
			mine = append(mine, c)
		}
	}

	compare := comparator(p.Sort.Key, p.Locale)
	if p.Sort.Dir == Desc {
		asc := compare
		compare = func(a, b domain.Contact) int { return asc(b, a) }
	}
	slices.SortStableFunc(mine, compare)

	start := min((page-1)*size, len(mine))
	end := min(start+size, len(mine))

	items := make([]domain.Contact, end-start)
	copy(items, mine[start:end])

	return Page{
		Items:      items,
		TotalPages: TotalPages(len(mine), size),
		TotalItems: len(mine),
		StartIndex: (page - 1) * size,
	}
}

func comparator(key SortKey, locale language.Tag) func(a, b domain.Contact) int {
	if key == SortByName {
		col := collate.New(locale)
		return func(a, b domain.Contact) int { return col.CompareString(a.Name, b.Name) }
	}
	return func(a, b domain.Contact) int { return cmp.Compare(a.Order, b.Order) }
}

// TotalPages is ceil(total/size), 0 for an empty list.
func TotalPages(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	return (total + size - 1) / size
}

// PageAfterDelete steps back one page when a delete empties the current page.
// remaining is the number of items left on that page.
func PageAfterDelete(page, remaining int) int {
	if remaining == 0 && page > 1 {
		return page - 1
	}
	return max(page, 1)
}

// PageAfterAdd jumps to the last page, where a new contact lands under the
// default sort.
func PageAfterAdd(total, size int) int {
	return max(TotalPages(total, size), 1)
}
