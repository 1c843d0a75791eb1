package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"reelqueue/internal/task"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the control server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves daemon diagnostics.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Reelqueue.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Add enqueues a task on the live queue.
func (c *Client) Add(t task.Task) (*AddResponse, error) {
	var resp AddResponse
	if err := c.client.Call("Reelqueue.Add", AddRequest{Task: t}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns all queued tasks.
func (c *Client) List() (*ListResponse, error) {
	var resp ListResponse
	if err := c.client.Call("Reelqueue.List", ListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Retry returns a failed or cancelled task to pending.
func (c *Client) Retry(id string) (*RetryResponse, error) {
	var resp RetryResponse
	if err := c.client.Call("Reelqueue.Retry", RetryRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel cancels a queued or processing task.
func (c *Client) Cancel(id string) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.client.Call("Reelqueue.Cancel", CancelRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Remove deletes a task from the queue.
func (c *Client) Remove(id string) (*RemoveResponse, error) {
	var resp RemoveResponse
	if err := c.client.Call("Reelqueue.Remove", RemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear removes finished tasks by scope.
func (c *Client) Clear(scope string) (*ClearResponse, error) {
	var resp ClearResponse
	if err := c.client.Call("Reelqueue.Clear", ClearRequest{Scope: scope}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pause freezes task admission on the daemon.
func (c *Client) Pause() (*PauseResponse, error) {
	var resp PauseResponse
	if err := c.client.Call("Reelqueue.Pause", PauseRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resume re-enables task admission on the daemon.
func (c *Client) Resume() (*ResumeResponse, error) {
	var resp ResumeResponse
	if err := c.client.Call("Reelqueue.Resume", ResumeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events fetches scheduler events per the request cursor and wait options.
func (c *Client) Events(req EventsRequest) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.client.Call("Reelqueue.Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
