package geometry

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lvillar/docpipe"
)

func TestResolvePagesAll(t *testing.T) {
	pages, err := ResolvePages(4, docpipe.PageSelector{Mode: docpipe.SelectAll})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if want := []int{0, 1, 2, 3}; !reflect.DeepEqual(pages, want) {
		t.Errorf("expected %v, got %v", want, pages)
	}
}

func TestResolvePagesOddEven(t *testing.T) {
	odd, err := ResolvePages(7, docpipe.PageSelector{Mode: docpipe.SelectOdd})
	if err != nil {
		t.Fatalf("odd: %v", err)
	}
	if want := []int{0, 2, 4, 6}; !reflect.DeepEqual(odd, want) {
		t.Errorf("odd pages: expected %v, got %v", want, odd)
	}

	even, err := ResolvePages(7, docpipe.PageSelector{Mode: docpipe.SelectEven})
	if err != nil {
		t.Fatalf("even: %v", err)
	}
	if want := []int{1, 3, 5}; !reflect.DeepEqual(even, want) {
		t.Errorf("even pages: expected %v, got %v", want, even)
	}
}

func TestResolvePagesCustom(t *testing.T) {
	tests := []struct {
		expr  string
		total int
		want  []int
	}{
		{"1-3,5", 10, []int{0, 1, 2, 4}},
		{"5-3", 10, []int{2, 3, 4}},
		{"3-5", 10, []int{2, 3, 4}},
		{"1,1,2", 5, []int{0, 1}},
		{"0-2", 5, []int{0, 1}},     // clamped to page 1
		{"4-99", 5, []int{3, 4}},    // clamped to total
		{"x,2,y-3", 5, []int{1}},    // bad tokens skipped
		{" 2 , 4 - 5 ", 5, []int{1, 3, 4}},
		{"", 5, []int{}},
	}

	for _, tt := range tests {
		got, err := ResolvePages(tt.total, docpipe.PageSelector{Mode: docpipe.SelectCustom, Range: tt.expr})
		if err != nil {
			t.Errorf("%q: %v", tt.expr, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q on total=%d: expected %v, got %v", tt.expr, tt.total, tt.want, got)
		}
	}
}

func TestResolvePagesBounds(t *testing.T) {
	for total := 1; total <= 9; total++ {
		pages, err := ResolvePages(total, docpipe.PageSelector{Mode: docpipe.SelectCustom, Range: "1-100"})
		if err != nil {
			t.Fatalf("total=%d: %v", total, err)
		}
		for _, p := range pages {
			if p < 0 || p >= total {
				t.Errorf("total=%d: index %d out of bounds", total, p)
			}
		}
	}
}

func TestResolvePagesInvalid(t *testing.T) {
	if _, err := ResolvePages(0, docpipe.PageSelector{}); !errors.Is(err, docpipe.ErrValidation) {
		t.Errorf("expected ErrValidation for zero pages, got %v", err)
	}
	if _, err := ResolvePages(3, docpipe.PageSelector{Mode: "sometimes"}); !errors.Is(err, docpipe.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown mode, got %v", err)
	}
}
