package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 60 * time.Second
	shutdownTimeout = 30 * time.Second

	// inheritEnv marks a child started by SIGUSR2; it serves on fd 3.
	inheritEnv  = "WEIGHTLOSS_INHERIT_LISTENER"
	inheritedFD = 3
)

// Server is an http.Server that drains in-flight requests on SIGTERM or
// SIGINT and hands its listening socket to a fresh process on SIGUSR2.
type Server struct {
	*http.Server

	listener   net.Listener
	onShutdown []func()
	done       chan struct{}
}

// NewServer wraps handler with the default timeouts.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		done: make(chan struct{}),
	}
}

// OnShutdown registers f to run once requests have drained, e.g. closing
// the database pool. Functions run in registration order.
func (srv *Server) OnShutdown(f func()) {
	srv.onShutdown = append(srv.onShutdown, f)
}

// ListenAndServe serves until a shutdown signal has been handled.
func (srv *Server) ListenAndServe() error {
	ln, err := srv.listen()
	if err != nil {
		return err
	}
	srv.listener = ln

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR2)
	defer signal.Stop(sigs)
	go srv.handleSignals(sigs)

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-srv.done
	return nil
}

func (srv *Server) listen() (net.Listener, error) {
	if os.Getenv(inheritEnv) != "" {
		ln, err := net.FileListener(os.NewFile(inheritedFD, "listener"))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *Server) handleSignals(sigs <-chan os.Signal) {
	log := zap.L()
	for sig := range sigs {
		switch sig {
		case syscall.SIGUSR2:
			pid, err := srv.fork()
			if err != nil {
				log.Error("restart failed, still serving", zap.Error(err))
				continue
			}
			log.Info("restarted, draining old process", zap.Int("new_pid", pid))
		default:
			log.Info("shutting down", zap.String("signal", sig.String()))
		}
		srv.shutdown()
		return
	}
}

func (srv *Server) shutdown() {
	defer close(srv.done)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("http shutdown", zap.Error(err))
	}
	for _, f := range srv.onShutdown {
		f()
	}
}

// fork starts a copy of this binary that serves on the same socket.
func (srv *Server) fork() (int, error) {
	tcp, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, errors.New("listener is not a TCP listener")
	}
	f, err := tcp.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer f.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, inheritEnv+"=") {
			env = append(env, e)
		}
	}
	env = append(env, inheritEnv+"=1")

	return syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), f.Fd()},
	})
}
