package content

import "testing"

func TestParseKind(t *testing.T) {
	for raw, want := range map[string]Kind{"post": KindPost, " Note ": KindNote, "PROJECT": KindProject} {
		got, err := ParseKind(raw)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q): want=%q got=%q err=%v", raw, want, got, err)
		}
	}
	if _, err := ParseKind("page"); err == nil {
		t.Fatalf("ParseKind(page): expected error")
	}
}

func TestEnrichedAndStrings(t *testing.T) {
	it := &Item{}
	if it.Enriched(FieldStudyChunks) || it.Enriched(FieldSummary) {
		t.Fatalf("fresh item should not be enriched")
	}
	got, err := it.Strings(FieldMnemonics)
	if err != nil || got != nil {
		t.Fatalf("Strings(null): want nil got=%v err=%v", got, err)
	}

	if err := it.SetStrings(FieldStudyChunks, []string{"A", "B"}); err != nil {
		t.Fatalf("SetStrings: %v", err)
	}
	if !it.Enriched(FieldStudyChunks) {
		t.Fatalf("study chunks should be enriched")
	}
	got, err = it.Strings(FieldStudyChunks)
	if err != nil || len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("Strings: want=[A B] got=%v err=%v", got, err)
	}

	if err := it.SetStrings(FieldSummary, []string{"x"}); err == nil {
		t.Fatalf("SetStrings(summary): expected error")
	}
}

func TestAssign(t *testing.T) {
	it := &Item{}
	if err := it.Assign(FieldSummary, "short"); err != nil || it.Summary == nil || *it.Summary != "short" {
		t.Fatalf("Assign(summary): got=%v err=%v", it.Summary, err)
	}
	raw, err := EncodeStrings([]string{"q1"})
	if err != nil {
		t.Fatalf("EncodeStrings: %v", err)
	}
	if err := it.Assign(FieldRecallQuestions, raw); err != nil || !it.Enriched(FieldRecallQuestions) {
		t.Fatalf("Assign(recall_questions): err=%v", err)
	}
	if err := it.Assign(FieldMnemonics, "text"); err == nil {
		t.Fatalf("Assign(mnemonics, string): expected error")
	}
	if err := it.Assign(FieldSummary, raw); err == nil {
		t.Fatalf("Assign(summary, json): expected error")
	}
}
