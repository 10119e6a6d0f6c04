package models

import "testing"

func TestRemoveStopWordsEmpty(t *testing.T) {
	if got := RemoveStopWords("", nil); got != "" {
		t.Errorf("RemoveStopWords(\"\") = %q", got)
	}
	if got := RemoveStopWords("   ", nil); got != "" {
		t.Errorf("RemoveStopWords(whitespace) = %q", got)
	}
}

func TestRemoveStopWordsBasic(t *testing.T) {
	if got := RemoveStopWords("the patient has a heart defect", nil); got != "patient heart defect" {
		t.Errorf("RemoveStopWords = %q", got)
	}
	if got := RemoveStopWords("and or but in on at", nil); got != "" {
		t.Errorf("all-stop-word query should strip to empty, got %q", got)
	}
}

func TestRemoveStopWordsPreservesConceptID(t *testing.T) {
	if got := RemoveStopWords("HP:0001631", nil); got != "HP:0001631" {
		t.Errorf("RemoveStopWords = %q", got)
	}
	if got := RemoveStopWords("find HP_0001631 and atrial defect", nil); got != "find HP_0001631 atrial defect" {
		t.Errorf("RemoveStopWords = %q", got)
	}
}

func TestRemoveStopWordsCollapsesWhitespace(t *testing.T) {
	if got := RemoveStopWords("  atrial   septal   defect  ", nil); got != "atrial septal defect" {
		t.Errorf("RemoveStopWords = %q", got)
	}
}

func TestRemoveStopWordsCustomList(t *testing.T) {
	custom := map[string]struct{}{"heart": {}}
	if got := RemoveStopWords("heart defect", custom); got != "defect" {
		t.Errorf("RemoveStopWords with custom list = %q", got)
	}
}

func TestPrepareQueryReturnsOriginalWhenStrippedEmpty(t *testing.T) {
	if got := PrepareQuery("  the and or  "); got != "the and or" {
		t.Errorf("PrepareQuery = %q", got)
	}
}

func TestPrepareQueryNormalizes(t *testing.T) {
	if got := PrepareQuery("the patient with atrial septal defect"); got != "patient atrial septal defect" {
		t.Errorf("PrepareQuery = %q", got)
	}
}

func TestResolveRequestValidate(t *testing.T) {
	req := &ResolveRequest{Query: ""}
	if err := req.Validate(); err == nil {
		t.Error("expected error for empty query")
	}
	req = &ResolveRequest{Query: "   "}
	if err := req.Validate(); err == nil {
		t.Error("expected error for whitespace query")
	}
	req = &ResolveRequest{Query: "tachycardia"}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Limit != 10 {
		t.Errorf("default limit = %d, want 10", req.Limit)
	}
	req = &ResolveRequest{Query: "tachycardia", Limit: 500}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Limit != 100 {
		t.Errorf("limit cap = %d, want 100", req.Limit)
	}
}
