package health

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// TestServer_ChannelStatus checks per-channel status over a real gRPC connection.
func TestServer_ChannelStatus(t *testing.T) {
	t.Parallel()

	lis := bufconn.Listen(1 << 20)
	srv := NewServer("telegram", "whatsapp")
	srv.SetChannelStatus("telegram", true)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)

	go func() {
		served <- srv.Serve(ctx, lis)
	}()

	client, err := Dial("passthrough:///bufnet",
		WithCallTimeout(2*time.Second),
		WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		})),
	)
	require.NoError(t, err)

	got, err := client.Check(context.Background(), "telegram")
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, got)

	got, err = client.Check(context.Background(), "whatsapp")
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)

	got, err = client.Check(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, got)

	_, err = client.Check(context.Background(), "sms")
	require.Equal(t, codes.NotFound, status.Code(err))

	require.NoError(t, client.Close())
	cancel()
	require.NoError(t, <-served)
}

// TestDial_RequiresAddress rejects an empty target.
func TestDial_RequiresAddress(t *testing.T) {
	t.Parallel()

	_, err := Dial("")
	require.ErrorIs(t, err, errAddressRequired)

	var c *Client
	require.NoError(t, c.Close())
}
