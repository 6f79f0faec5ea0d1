package dashboard

import "testing"

func TestLookupSection(t *testing.T) {
	tests := []struct {
		id       string
		wantID   string
		wantName string
	}{
		{"dashboard", "dashboard", "Dashboard"},
		{"reports", "reports", "Relatórios"},
		{"analytics", "analytics", "Analytics"},
		{"data-sources", "data-sources", "Fontes de Dados"},
		{"settings", "settings", "Configurações"},
		{"", "dashboard", "Dashboard"},
		{"unknown", "dashboard", "Dashboard"},
	}
	for _, tt := range tests {
		got := LookupSection(tt.id)
		if got.ID != tt.wantID || got.Name != tt.wantName {
			t.Errorf("LookupSection(%q) = %+v, want id %q name %q", tt.id, got, tt.wantID, tt.wantName)
		}
		if got.Subtitle == "" {
			t.Errorf("LookupSection(%q).Subtitle is empty", tt.id)
		}
	}
}

func TestSectionsIsCopy(t *testing.T) {
	s := Sections()
	if len(s) != 5 {
		t.Fatalf("len(Sections()) = %d, want 5", len(s))
	}
	s[0].Name = "changed"
	if Sections()[0].Name != "Dashboard" {
		t.Error("Sections() exposes the internal slice")
	}
}

func TestCounters(t *testing.T) {
	c := Counters()
	if len(c) != 3 {
		t.Fatalf("len(Counters()) = %d, want 3", len(c))
	}
	for _, v := range c {
		if v.Value != 0 {
			t.Errorf("%s = %d, want 0", v.Label, v.Value)
		}
	}
}
