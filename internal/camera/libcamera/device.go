package libcamera

import (
	"context"
	"fmt"
	"os/exec"
)

// Handler builds `libcamera-still` commands for the camera device
type Handler struct {
	command string
	args    []string
}

// New creates a new Handler from the given configuration
func New(config *Config) (*Handler, error) {
	if config == nil {
		config = &Config{}
	}

	args, err := config.Args()
	if err != nil {
		return nil, fmt.Errorf("building %s args: %w", Runtime, err)
	}

	command := config.Command
	if command == "" {
		command = Runtime
	}

	return &Handler{command: command, args: args}, nil
}

// Cmd returns the capture command writing one still to path
func (h *Handler) Cmd(ctx context.Context, path string) *exec.Cmd {
	args := make([]string, 0, len(h.args)+2)
	args = append(args, h.args...)
	args = append(args, "-o", path)

	return exec.CommandContext(ctx, h.command, args...)
}

// Model returns the camera tool name
func (h *Handler) Model() string {
	return Runtime
}
