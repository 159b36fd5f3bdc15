package themes

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestGetTheme(t *testing.T) {
	tests := []struct {
		name        string
		wantPrimary lipgloss.Color
		wantError   lipgloss.Color
	}{
		{name: "default", wantPrimary: "#7c3aed", wantError: "#ef4444"},
		{name: "catppuccin-mocha", wantPrimary: "#cba6f7", wantError: "#f38ba8"},
		{name: "unknown", wantPrimary: "#7c3aed", wantError: "#ef4444"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme := GetTheme(tt.name)
			assert.Equal(t, tt.wantPrimary, theme.Primary)
			assert.Equal(t, tt.wantError, theme.Error)
			assert.Equal(t, tt.wantPrimary, theme.Badge.GetBackground())
			assert.True(t, theme.Title.GetBold())
		})
	}
}
