package shutdown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCancelIsIdempotent(t *testing.T) {
	c := New(context.Background())
	c.Cancel()
	c.Cancel()
	require.Error(t, c.Context().Err())
}

func TestGoRecoversPanicAndCancels(t *testing.T) {
	c := New(context.Background())
	c.Go(func(ctx context.Context) {
		panic("boom")
	})
	c.Wait()

	select {
	case <-c.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("expected context to be cancelled after panic")
	}
}

func TestGoTaskObservesExternalCancellation(t *testing.T) {
	c := New(context.Background())
	started := make(chan struct{})
	c.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started
	c.Cancel()
	c.Wait()
}
