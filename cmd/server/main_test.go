package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/jobtrack/internal/config"
	"github.com/and161185/jobtrack/internal/limiter"
)

func TestNewLogger_Modes(t *testing.T) {
	t.Parallel()

	for _, env := range []string{"production", "development"} {
		log, err := newLogger(&config.Server{Env: env})
		require.NoError(t, err)
		require.NotNil(t, log)
	}
}

func TestOpenStores_MemoryWithoutDSN(t *testing.T) {
	t.Parallel()

	st, err := openStores(context.Background(), &config.Server{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer st.close()

	require.NotNil(t, st.users)
	require.NotNil(t, st.apps)
	require.IsType(t, &limiter.Memory{}, st.lim)
}
