package wgaddr

import "testing"

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantHost string
		wantPort uint16
		wantErr  bool
	}{
		{name: "host and port", in: "198.51.100.5:51821", wantHost: "198.51.100.5", wantPort: 51821},
		{name: "bare host defaults port", in: "198.51.100.5", wantHost: "198.51.100.5", wantPort: DefaultPort},
		{name: "hostname defaults port", in: "node-a.example.net", wantHost: "node-a.example.net", wantPort: DefaultPort},
		{name: "empty is an error", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpoint(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEndpoint(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEndpoint(%q): unexpected error: %v", tt.in, err)
			}
			if got.Host != tt.wantHost || got.Port != tt.wantPort {
				t.Fatalf("ParseEndpoint(%q) = %+v, want {%s %d}", tt.in, got, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestRandomULAIsInRange(t *testing.T) {
	ip, err := RandomULA()
	if err != nil {
		t.Fatalf("RandomULA: unexpected error: %v", err)
	}
	if len(ip) != 16 {
		t.Fatalf("RandomULA: got %d bytes, want 16", len(ip))
	}
	if ip[0] != 0xfd {
		t.Fatalf("RandomULA: first byte = %#x, want 0xfd", ip[0])
	}
}
