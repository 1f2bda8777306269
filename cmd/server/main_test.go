package main

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGinModeFor(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"debug", gin.DebugMode},
		{"info", gin.ReleaseMode},
		{"warn", gin.ReleaseMode},
		{"error", gin.ReleaseMode},
		{"", gin.ReleaseMode},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, ginModeFor(tt.level))
		})
	}
}
