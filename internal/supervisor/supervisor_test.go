package supervisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/firi/lsp-broker/internal/config"
	"github.com/firi/lsp-broker/internal/errs"
)

func TestGetUnknownServerNotRunning(t *testing.T) {
	sup := New(map[string]config.ServerConfig{}, zap.NewNop())
	_, err := sup.Get("rust")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.ServerNotRunning))
}

func TestStartUnknownLanguage(t *testing.T) {
	sup := New(map[string]config.ServerConfig{}, zap.NewNop())
	_, err := sup.Start(context.Background(), "nonexistent")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.UnknownLanguage))
}

func TestStopUnknownIsNoop(t *testing.T) {
	sup := New(map[string]config.ServerConfig{}, zap.NewNop())
	require.NoError(t, sup.Stop(context.Background(), "rust"))
}

func TestConfigFor(t *testing.T) {
	cfg := config.ServerConfig{Command: "rust-analyzer"}
	sup := New(map[string]config.ServerConfig{"rust": cfg}, zap.NewNop())
	got, ok := sup.ConfigFor("rust")
	require.True(t, ok)
	require.Equal(t, "rust-analyzer", got.Command)
}
