package matching

import (
	"testing"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

func testCategories() []domain.Category {
	return []domain.Category{
		{Name: "contract", Keywords: []string{"合同", "contract", "agreement"}, IsBuiltin: true},
		{Name: "resume", Keywords: []string{"简历", "resume", "cv"}, IsBuiltin: true},
		{Name: "invoice", Keywords: []string{"发票", "invoice", "bill"}, IsBuiltin: true},
		{Name: "thesis", Keywords: []string{"论文", "thesis", "paper"}, IsBuiltin: true},
		{Name: "uncategorized", IsBuiltin: true},
	}
}

func TestMatchCJKFilename(t *testing.T) {
	name, ok := New().Match("合同_2024.pdf", testCategories())
	if !ok || name != "contract" {
		t.Fatalf("Match() = %q, %v; want contract", name, ok)
	}
}

func TestMatchIsCaseInsensitiveSubstring(t *testing.T) {
	name, ok := New().Match("Final_INVOICE_march.xlsx", testCategories())
	if !ok || name != "invoice" {
		t.Fatalf("Match() = %q, %v; want invoice", name, ok)
	}
}

func TestMatchRegistryOrderWins(t *testing.T) {
	// Both contract and resume keywords appear; first registry entry wins.
	name, ok := New().Match("agreement_resume.docx", testCategories())
	if !ok || name != "contract" {
		t.Fatalf("Match() = %q, %v; want contract", name, ok)
	}
}

func TestMatchSkipsUncategorized(t *testing.T) {
	categories := []domain.Category{
		{Name: "uncategorized", Keywords: []string{"pdf"}, IsBuiltin: true},
	}
	if name, ok := New().Match("notes.pdf", categories); ok {
		t.Fatalf("expected no match, got %q", name)
	}
}

func TestMatchNoHit(t *testing.T) {
	if name, ok := New().Match("holiday_photos.zip", testCategories()); ok {
		t.Fatalf("expected no match, got %q", name)
	}
}

func TestMatchEmptyFilename(t *testing.T) {
	if _, ok := New().Match("   ", testCategories()); ok {
		t.Fatalf("expected no match for blank filename")
	}
}

func TestMatchIgnoresEmptyKeywords(t *testing.T) {
	categories := []domain.Category{
		{Name: "contract", Keywords: []string{""}, IsBuiltin: true},
	}
	if name, ok := New().Match("anything.txt", categories); ok {
		t.Fatalf("expected no match on empty keyword, got %q", name)
	}
}
