package models

import "testing"

func TestNormalizeOption(t *testing.T) {
	tests := []struct {
		raw  string
		want Option
		ok   bool
	}{
		{"A", OptionA, true},
		{"a", OptionA, true},
		{" c ", OptionC, true},
		{"d", OptionD, true},
		{"E", "", false},
		{"", "", false},
		{"AB", "", false},
		{"1", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeOption(tt.raw)
		if ok != tt.ok {
			t.Errorf("NormalizeOption(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("NormalizeOption(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestRefKeyRoundTrip(t *testing.T) {
	refs := []QuestionRef{
		{SubjectTag: "道路", Year: 2015, ID: 42},
		{SubjectTag: "共通", Year: BasicYear, ID: 1},
		{SubjectTag: "河川、砂防及び海岸・海洋", Year: 2019, ID: 7},
	}
	for _, ref := range refs {
		got, err := ParseRefKey(ref.Key())
		if err != nil {
			t.Errorf("ParseRefKey(%q): %v", ref.Key(), err)
			continue
		}
		if got != ref {
			t.Errorf("round trip %v → %q → %v", ref, ref.Key(), got)
		}
	}
}

func TestParseRefKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "道路", "道路|2015", "道路|x|1", "道路|2015|x", "|2015|1"} {
		if _, err := ParseRefKey(key); err == nil {
			t.Errorf("ParseRefKey(%q) succeeded, want error", key)
		}
	}
}

func TestOptionText(t *testing.T) {
	q := &Question{OptionA: "ア", OptionB: "イ", OptionC: "ウ", OptionD: "エ"}
	for opt, want := range map[Option]string{OptionA: "ア", OptionB: "イ", OptionC: "ウ", OptionD: "エ"} {
		got, ok := q.OptionText(opt)
		if !ok || got != want {
			t.Errorf("OptionText(%s) = %q, %v; want %q", opt, got, ok, want)
		}
	}
	if _, ok := q.OptionText("E"); ok {
		t.Error("OptionText(E) should not resolve")
	}
}
