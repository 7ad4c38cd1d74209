package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"lowercase and collapse", "  Great   APP\n\tworks  ", "great app works"},
		{"strips url", "see https://example.com/x for more", "see for more"},
		{"strips www", "visit www.bank.et today", "visit today"},
		{"strips email", "mail me at help@bank.com please", "mail me at please"},
		{"keeps non-latin", "ጥሩ APP", "ጥሩ app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "The App CRASHES  constantly!! http://x.y"
	once := Normalize(in)
	if twice := Normalize(once); twice != once {
		t.Errorf("not idempotent: %q -> %q", once, twice)
	}
}

func TestNormalizePtr(t *testing.T) {
	if got := NormalizePtr(nil); got != "" {
		t.Errorf("NormalizePtr(nil) = %q", got)
	}
	s := " Hi "
	if got := NormalizePtr(&s); got != "hi" {
		t.Errorf("NormalizePtr = %q", got)
	}
}
