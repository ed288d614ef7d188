package cmd

import "testing"

func TestCaptureFlags(t *testing.T) {
	flagTypes(t, "capture", map[string]string{
		"not-important": "bool",
		"visible-only":  "bool",
		"flat":          "bool",
		"count":         "bool",
		"text":          "string",
		"depth":         "int",
		"save":          "string",
		"diff":          "string",
		"hash":          "int64",
		"view-id":       "string",
		"check":         "bool",
	})
}

func TestParseSnapshotRef(t *testing.T) {
	tests := []struct {
		ref     string
		label   string
		ts      int64
		wantErr bool
	}{
		{ref: "home:1700000000", label: "home", ts: 1700000000},
		{ref: "a:b:42", label: "a:b", ts: 42},
		{ref: "home", wantErr: true},
		{ref: ":42", wantErr: true},
		{ref: "home:", wantErr: true},
		{ref: "home:soon", wantErr: true},
	}
	for _, tt := range tests {
		label, ts, err := parseSnapshotRef(tt.ref)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSnapshotRef(%q): expected error", tt.ref)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSnapshotRef(%q): %v", tt.ref, err)
			continue
		}
		if label != tt.label || ts != tt.ts {
			t.Errorf("parseSnapshotRef(%q) = %q, %d", tt.ref, label, ts)
		}
	}
}

func TestOtherCommandFlags(t *testing.T) {
	flagTypes(t, "gesture", map[string]string{
		"type": "string", "x": "int", "y": "int", "end-x": "int", "end-y": "int", "duration": "int",
	})
	flagTypes(t, "launch", map[string]string{
		"type": "string", "package": "string", "class": "string", "action": "string",
		"data": "string", "category": "string", "extras": "string",
	})
	flagTypes(t, "compare-bounds", map[string]string{"not-important": "bool"})
	flagTypes(t, "consistency", map[string]string{"kind": "string", "pause": "duration"})
	flagTypes(t, "do", map[string]string{"stop-on-error": "bool"})
	flagTypes(t, "serve", map[string]string{"transport": "string", "port": "int", "cache-ttl": "duration"})
}
