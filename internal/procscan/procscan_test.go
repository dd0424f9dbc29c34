package procscan

import "testing"

// TestParseListenPort covers the argument shapes debugpy accepts for
// --listen.
func TestParseListenPort(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{
			name: "separate argument with host and port",
			args: []string{"python", "-m", "debugpy", "--listen", "127.0.0.1:5678", "app.py"},
			want: 5678,
		},
		{
			name: "separate argument port only",
			args: []string{"python", "-m", "debugpy", "--listen", "5678", "app.py"},
			want: 5678,
		},
		{
			name: "equals form",
			args: []string{"python", "-m", "debugpy", "--listen=0.0.0.0:9000", "app.py"},
			want: 9000,
		},
		{
			name: "equals form port only",
			args: []string{"python", "-m", "debugpy", "--listen=9000", "app.py"},
			want: 9000,
		},
		{
			name: "no listen flag",
			args: []string{"python", "-m", "debugpy", "--connect", "5678", "app.py"},
			want: 0,
		},
		{
			name: "listen flag at end with no value",
			args: []string{"python", "-m", "debugpy", "--listen"},
			want: 0,
		},
		{
			name: "garbage port",
			args: []string{"python", "-m", "debugpy", "--listen", "localhost:notaport", "app.py"},
			want: 0,
		},
		{
			name: "empty args",
			args: nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseListenPort(tt.args); got != tt.want {
				t.Errorf("parseListenPort(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

// TestScan just exercises the scanner against the live process table; the
// result depends on the host, so only the error path is asserted.
func TestScan(t *testing.T) {
	if _, err := Scan(); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
}
