package grpc

import (
	"context"
	"fmt"
	"time"

	"guild-mirror/utils"

	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Client 封装 gRPC 健康检查客户端连接
type Client struct {
	conn          *grpc.ClientConn
	healthClient  healthpb.HealthClient
	serverAddress string
	timeout       time.Duration
}

// NewClient 创建新的 gRPC 客户端
func NewClient(serverAddress string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(serverAddress, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:          conn,
		healthClient:  healthpb.NewHealthClient(conn),
		serverAddress: serverAddress,
		timeout:       timeout,
	}, nil
}

// Close 关闭 gRPC 连接
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Check 查询远端存储的健康状态，SERVING 时返回 true
func (c *Client) Check(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		utils.L().Error("health check call failed", zap.String("addr", c.serverAddress), zap.Error(err))
		return false, fmt.Errorf("health check against %s: %w", c.serverAddress, err)
	}

	utils.L().Debug("health check answered",
		zap.String("addr", c.serverAddress),
		zap.String("status", resp.GetStatus().String()))
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}
