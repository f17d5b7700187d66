package paapi

import "testing"

func TestStripPriceRangeWorkaround(t *testing.T) {
	t.Parallel()

	min, max := 10000, 20000

	t.Run("both bounds set strips max", func(t *testing.T) {
		t.Parallel()
		out, applied := stripPriceRangeWorkaround(SearchRequest{MinPrice: &min, MaxPrice: &max})
		if !applied {
			t.Fatal("expected workaround to apply")
		}
		if out.MaxPrice != nil {
			t.Fatal("expected MaxPrice stripped")
		}
		if out.MinPrice != &min {
			t.Fatal("expected MinPrice left untouched")
		}
	})

	t.Run("only min set is a no-op", func(t *testing.T) {
		t.Parallel()
		out, applied := stripPriceRangeWorkaround(SearchRequest{MinPrice: &min})
		if applied {
			t.Fatal("expected no workaround")
		}
		if out.MinPrice != &min {
			t.Fatal("expected MinPrice unchanged")
		}
	})

	t.Run("only max set is a no-op", func(t *testing.T) {
		t.Parallel()
		out, applied := stripPriceRangeWorkaround(SearchRequest{MaxPrice: &max})
		if applied {
			t.Fatal("expected no workaround")
		}
		if out.MaxPrice != &max {
			t.Fatal("expected MaxPrice unchanged")
		}
	})

	t.Run("neither set is a no-op", func(t *testing.T) {
		t.Parallel()
		_, applied := stripPriceRangeWorkaround(SearchRequest{})
		if applied {
			t.Fatal("expected no workaround")
		}
	})
}
