package libcamera

import (
	"context"
	"strings"
	"testing"
)

func TestConfigArgs(t *testing.T) {
	config := Config{
		Width:    2592,
		Height:   1944,
		Quality:  93,
		AWB:      AWBAuto,
		Exposure: ExposureNormal,
	}

	args, err := config.Args()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{"--width 2592", "--height 1944", "-q 93", "--awb auto", "--exposure normal", "-n"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"negative width", Config{Width: -1, Height: 100}},
		{"width without height", Config{Width: 2592}},
		{"quality too high", Config{Quality: 101}},
		{"negative timeout", Config{TimeoutMs: -5}},
		{"unknown awb", Config{AWB: "moonlight"}},
		{"unknown exposure", Config{Exposure: "instant"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.config.Validate(); err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestHandlerCmd(t *testing.T) {
	h, err := New(&Config{Quality: 90})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd := h.Cmd(context.Background(), "/tmp/image_20240301_101530.jpg")

	joined := strings.Join(cmd.Args, " ")
	if !strings.Contains(joined, "-o /tmp/image_20240301_101530.jpg") {
		t.Errorf("cmd %q missing output path", joined)
	}
	if !strings.HasSuffix(cmd.Args[0], Runtime) {
		t.Errorf("cmd binary = %q, want %q", cmd.Args[0], Runtime)
	}
}
