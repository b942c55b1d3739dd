package textutil_test

import (
	"testing"

	"github.com/SanyCska/serials-bot/internal/textutil"
)

func TestTokenizeKeepsNumericTitles(t *testing.T) {
	tokens := textutil.Tokenize("24")
	if len(tokens) != 1 || tokens[0] != "24" {
		t.Fatalf("Tokenize(\"24\") = %v, want [24]", tokens)
	}
}

func TestTokenizeDropsSingleLetters(t *testing.T) {
	tokens := textutil.Tokenize("The A Team")
	want := []string{"the", "team"}
	if len(tokens) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", tokens, want)
	}
	for i, token := range tokens {
		if token != want[i] {
			t.Fatalf("Tokenize() = %v, want %v", tokens, want)
		}
	}
}

func TestCosineSimilarityRanksCloserTitleHigher(t *testing.T) {
	query := textutil.NewFingerprint("game of thrones")
	exact := textutil.NewFingerprint("Game of Thrones")
	related := textutil.NewFingerprint("Game of Thrones: The Last Watch")

	exactScore := textutil.CosineSimilarity(query, exact)
	relatedScore := textutil.CosineSimilarity(query, related)
	if exactScore <= relatedScore {
		t.Fatalf("exact score %f should beat related score %f", exactScore, relatedScore)
	}
}

func TestCosineSimilarityNilSafe(t *testing.T) {
	if score := textutil.CosineSimilarity(nil, textutil.NewFingerprint("anything")); score != 0 {
		t.Fatalf("similarity with nil = %f, want 0", score)
	}
	if textutil.NewFingerprint("?!") != nil {
		t.Fatal("expected nil fingerprint for punctuation-only text")
	}
}
