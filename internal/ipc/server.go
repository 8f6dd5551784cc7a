package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	// maxRequestBytes bounds one request line.
	maxRequestBytes = 4 << 10
	// connTimeout bounds a whole client exchange.
	connTimeout = 5 * time.Second
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts clients until ctx is canceled or the listener is closed, and
// waits for in-flight connections before returning. The handler receives ctx.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			_ = c.SetDeadline(time.Now().Add(connTimeout))
			_ = json.NewEncoder(c).Encode(serveConn(ctx, c, handler))
		}(conn)
	}
}

// serveConn reads one request line and returns the response to write back.
func serveConn(ctx context.Context, r io.Reader, handler Handler) Response {
	line, err := bufio.NewReader(io.LimitReader(r, maxRequestBytes)).ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) >= maxRequestBytes {
			return Response{OK: false, Error: fmt.Sprintf("read request: request exceeds %d bytes", maxRequestBytes)}
		}
		return Response{OK: false, Error: fmt.Sprintf("read request: %v", err)}
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)}
	}
	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		return Response{OK: false, Error: "decode request: command is empty"}
	}
	return handler.Handle(ctx, req)
}
