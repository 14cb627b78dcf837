package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to a running frame server.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the frame server at addr.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// GetFrameAtTime requests the frame of unit index at offset seconds.
func (c *Client) GetFrameAtTime(index int, offset float64) (*FrameResponse, error) {
	var resp FrameResponse
	req := FrameRequest{AnimationIndex: index, AnimationOffset: offset}
	if err := c.client.Call("FrameServer.GetFrameAtTime", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RendererStatus retrieves the served scene and its progress.
func (c *Client) RendererStatus() (*RendererStatusResponse, error) {
	var resp RendererStatusResponse
	if err := c.client.Call("FrameServer.RendererStatus", RendererStatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateSceneLocation calls the reserved scene location endpoint.
func (c *Client) UpdateSceneLocation() error {
	var resp SceneLocationResponse
	return c.client.Call("FrameServer.UpdateSceneLocation", SceneLocationRequest{}, &resp)
}
