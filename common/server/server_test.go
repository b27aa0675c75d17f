package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/lyzr/accounts/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_StopsWhenContextIsCancelled(t *testing.T) {
	srv := New("test", 0, http.NotFoundHandler(), logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "server did not stop")
	}
}
