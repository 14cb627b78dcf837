package ipc

import (
	"context"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// RendererClient calls the renderer's Renderer service. Each call opens its
// own connection, so a renderer restart between calls is harmless.
type RendererClient struct {
	addr    string
	timeout time.Duration
}

// NewRendererClient targets the renderer listening on addr. timeout bounds
// the dial when ctx carries no deadline.
func NewRendererClient(addr string, timeout time.Duration) *RendererClient {
	return &RendererClient{addr: addr, timeout: timeout}
}

// Addr returns the renderer address.
func (r *RendererClient) Addr() string {
	return r.addr
}

// Status announces sceneName to the renderer. Dial failures wrap the
// underlying *net.OpError.
func (r *RendererClient) Status(ctx context.Context, sceneName string) error {
	var resp StatusResponse
	return r.call(ctx, "Renderer.Status", StatusRequest{SceneName: sceneName}, &resp)
}

// AnimationReady tells the renderer that unit index of sceneName is live.
func (r *RendererClient) AnimationReady(ctx context.Context, sceneName string, index int) error {
	var resp AnimationReadyResponse
	return r.call(ctx, "Renderer.AnimationReady", AnimationReadyRequest{SceneName: sceneName, UnitIndex: index}, &resp)
}

func (r *RendererClient) call(ctx context.Context, method string, args, reply any) error {
	dialer := net.Dialer{Timeout: r.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return fmt.Errorf("dial renderer: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	client := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	defer client.Close()

	call := client.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		if call.Error != nil {
			return fmt.Errorf("%s: %w", method, call.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
