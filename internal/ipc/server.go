package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"reelqueue/internal/daemon"
	"reelqueue/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the control server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Reelqueue", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logging.NewComponentLogger(logger, "ipc"),
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("control socket listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
		)
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.Paused = status.Paused
	resp.InFlight = status.InFlight
	resp.Capacity = status.Capacity
	resp.TaskCounts = make(map[string]int, len(status.TaskCounts))
	for st, count := range status.TaskCounts {
		resp.TaskCounts[string(st)] = count
	}
	resp.QueueDBPath = status.QueueDBPath
	resp.LockFilePath = status.LockFilePath
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Add(req AddRequest, resp *AddResponse) error {
	if strings.TrimSpace(req.Task.Subject) == "" {
		return errors.New("task subject is required")
	}
	queued := req.Task.Clone()
	resp.Added = s.daemon.Queue().Add(queued)
	if !resp.Added {
		resp.Task = req.Task
		return nil
	}
	if current, ok := s.daemon.Queue().Get(queued.ID); ok {
		resp.Task = current
	} else {
		resp.Task = *queued
	}
	s.logger.Info("task enqueued via control socket",
		logging.String("task", queued.ID),
		logging.String("type", string(queued.Type)),
		logging.String("subject", queued.Subject),
	)
	return nil
}

func (s *service) List(_ ListRequest, resp *ListResponse) error {
	resp.Tasks = s.daemon.Queue().Tasks()
	return nil
}

func (s *service) Retry(req RetryRequest, resp *RetryResponse) error {
	if err := requireTaskID(req.ID); err != nil {
		return err
	}
	resp.Retried = s.daemon.Queue().Retry(req.ID)
	return nil
}

func (s *service) Cancel(req CancelRequest, resp *CancelResponse) error {
	if err := requireTaskID(req.ID); err != nil {
		return err
	}
	resp.Cancelled = s.daemon.Queue().Cancel(req.ID)
	return nil
}

func (s *service) Remove(req RemoveRequest, resp *RemoveResponse) error {
	if err := requireTaskID(req.ID); err != nil {
		return err
	}
	resp.Removed = s.daemon.Queue().Remove(req.ID)
	return nil
}

func (s *service) Clear(req ClearRequest, resp *ClearResponse) error {
	q := s.daemon.Queue()
	switch req.Scope {
	case ClearFailed:
		resp.Removed = q.ClearFailed()
	case ClearAll:
		resp.Removed = q.ClearAll()
	case ClearCompleted, "":
		resp.Removed = q.ClearCompleted()
	default:
		return fmt.Errorf("unknown clear scope %q", req.Scope)
	}
	s.logger.Info("queue cleared via control socket",
		logging.String("scope", req.Scope),
		logging.Int("removed", resp.Removed),
	)
	return nil
}

func (s *service) Pause(_ PauseRequest, resp *PauseResponse) error {
	s.daemon.Queue().Pause()
	resp.Paused = true
	return nil
}

func (s *service) Resume(_ ResumeRequest, resp *ResumeResponse) error {
	s.daemon.Queue().Resume()
	resp.Paused = false
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	hub := s.daemon.Events()
	if !req.Wait {
		if req.Since == 0 {
			resp.Events, resp.Next = hub.Tail(req.Limit)
			return nil
		}
		evts, next, err := hub.Fetch(s.ctx, req.Since, req.Limit, false)
		if err != nil {
			return err
		}
		resp.Events = evts
		resp.Next = next
		return nil
	}

	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 {
		wait = time.Second
	}
	ctx, cancel := context.WithTimeout(s.ctx, wait)
	defer cancel()
	evts, next, err := hub.Fetch(ctx, req.Since, req.Limit, true)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	// A timed-out wait is an empty fetch, not an error.
	resp.Events = evts
	resp.Next = next
	return nil
}

func requireTaskID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("task id is required")
	}
	return nil
}
