package sanitize

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ana Vendedora", "Ana Vendedora"},
		{"  Juan   Vendedor \n", "Juan Vendedor"},
		{"<b>Bold</b> Name", "Bold Name"},
		{"<script>alert(1)</script>Eve", "Eve"},
		{"O'Brien & Sons", "O'Brien & Sons"},
	}
	for _, tt := range tests {
		if got := Name(tt.in); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmail(t *testing.T) {
	if got := Email("  Vendedor1@CRM.com "); got != "vendedor1@crm.com" {
		t.Errorf("unexpected normalized email %q", got)
	}
}
