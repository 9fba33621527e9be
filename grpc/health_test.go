package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeProber struct {
	err   error
	calls int
}

func (f *fakeProber) Probe(context.Context) error {
	f.calls++
	return f.err
}

func startServer(t *testing.T, prober Prober) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(prober)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := NewClient("passthrough:///bufnet", time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestHealth_Serving(t *testing.T) {
	prober := &fakeProber{}
	client := startServer(t, prober)

	ok, err := client.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, prober.calls)
}

func TestHealth_NotServingWhenProbeFails(t *testing.T) {
	prober := &fakeProber{err: errors.New("connection refused")}
	client := startServer(t, prober)

	ok, err := client.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHealth_ProbesOnEveryCheck(t *testing.T) {
	prober := &fakeProber{}
	client := startServer(t, prober)

	for i := 0; i < 3; i++ {
		_, err := client.Check(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, prober.calls)
}

func TestHealth_UnknownService(t *testing.T) {
	client := startServer(t, &fakeProber{})

	_, err := client.healthClient.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "other"})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}
