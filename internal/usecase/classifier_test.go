package usecase

import (
	"testing"

	"github.com/runova/backend/internal/domain"
)

func TestIsProductRequest(t *testing.T) {
	c := NewClassifier(ClassifierConfig{})

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"recommend phrasing", "Can you recommend a cleanser?", true},
		{"suggest phrasing", "Please suggest something for oily skin", true},
		{"which cleanser", "which cleanser works for me", true},
		{"should i use", "should I use retinol at night?", true},
		{"plain knowledge question", "What causes acne?", false},
		{"empty", "", false},
		{"near empty", "hi", false},
		{"whitespace only", "   \n\t ", false},
		{"ambiguous phrasing rejected", "my skin feels tight after washing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsProductRequest(tt.text); got != tt.want {
				t.Errorf("IsProductRequest(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsMultiProductRequest(t *testing.T) {
	c := NewClassifier(ClassifierConfig{})

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"some products", "recommend some products for dry skin", true},
		{"three products", "give me three products", true},
		{"products for", "best products for acne", true},
		{"routine", "build me a skincare routine", true},
		{"single ask", "recommend a cleanser", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsMultiProductRequest(tt.text); got != tt.want {
				t.Errorf("IsMultiProductRequest(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectRequestedCategory(t *testing.T) {
	c := NewClassifier(ClassifierConfig{})

	tests := []struct {
		name string
		text string
		want domain.Category
	}{
		{"sunscreen", "recommend a sunscreen", domain.CategorySunscreen},
		{"spf counts as sunscreen", "I need something with SPF", domain.CategorySunscreen},
		{"moisturizer", "which moisturizer should I buy", domain.CategoryMoisturizer},
		{"cleanser", "what cleanser do you suggest", domain.CategoryCleanser},
		{"serum", "recommend a serum", domain.CategorySerum},
		{"retinol", "should I use retinol", domain.CategoryRetinol},
		{"sunscreen beats moisturizer", "a moisturizer with sunscreen please", domain.CategorySunscreen},
		{"moisturizer beats cream wording", "a moisturizing cream for winter", domain.CategoryMoisturizer},
		{"weak cream signal alone", "a good night cream", domain.CategoryMoisturizer},
		{"weak signal loses to strong category", "a cleanser, not a cream", domain.CategoryCleanser},
		{"nothing requested", "my skin is dull", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.DetectRequestedCategory(tt.text); got != tt.want {
				t.Errorf("DetectRequestedCategory(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectFragranceFree(t *testing.T) {
	c := NewClassifier(ClassifierConfig{})

	if !c.DetectFragranceFree("a fragrance-free moisturizer please") {
		t.Error("fragrance-free requirement not detected")
	}
	if !c.DetectFragranceFree("something unscented") {
		t.Error("unscented requirement not detected")
	}
	if c.DetectFragranceFree("a moisturizer with a nice scent") {
		t.Error("scented preference wrongly detected as fragrance-free")
	}
}

func TestClassifierConfigOverrides(t *testing.T) {
	c := NewClassifier(ClassifierConfig{
		IntentPhrases: []string{"gimme"},
	})

	if !c.IsProductRequest("gimme a cleanser") {
		t.Error("custom intent phrase not honored")
	}
	if c.IsProductRequest("recommend a cleanser") {
		t.Error("default phrases should be replaced, not merged")
	}
}
