package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pg-lang-server/pgls/internal/config"
	"github.com/pg-lang-server/pgls/internal/daemon"
	"github.com/pg-lang-server/pgls/internal/lsp"
)

// NewStartCommand creates the start command: it launches `run-server` as a
// detached background process and returns once the process has been
// spawned, without waiting for its socket to start listening.
func NewStartCommand(getConfig func(context.Context) *config.Config) *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the pgls background server for this project",
		Long: `Launch a run-server process in the background, listening on a
Unix-domain socket keyed to --project-dir, and return once the process
has been spawned (without waiting for the socket to be ready).
A project that already has a running server is left alone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStart(cmd, projectDir)
		},
	}
	cmd.Flags().StringVar(&projectDir, "project-dir", ".", "project to start a server for")
	return cmd
}

func runStart(cmd *cobra.Command, projectDir string) error {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if pid, _ := daemon.ReadPID(abs); pid != 0 && processAlive(pid) {
		fmt.Fprintf(cmd.OutOrStdout(), "pgls already running for %s (pid %d)\n", abs, pid)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	logPath := filepath.Join(os.TempDir(), fmt.Sprintf("pgls-%s.log", daemon.ID(abs)))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("start: opening log file: %w", err)
	}
	defer logFile.Close()

	proc := exec.Command(exe, "run-server", "--project-dir", abs)
	proc.Stdout = logFile
	proc.Stderr = logFile
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := proc.Process.Release(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "started pgls for %s, logging to %s\n", abs, logPath)
	return nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// NewStopCommand creates the stop command.
func NewStopCommand(getConfig func(context.Context) *config.Config) *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the pgls background server for this project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStop(cmd, projectDir)
		},
	}
	cmd.Flags().StringVar(&projectDir, "project-dir", ".", "project whose server to stop")
	return cmd
}

func runStop(cmd *cobra.Command, projectDir string) error {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}

	pid, err := daemon.ReadPID(abs)
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	if pid == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no pgls server recorded for %s\n", abs)
		return nil
	}

	proc, err := os.FindProcess(pid)
	if err == nil {
		_ = proc.Signal(syscall.SIGTERM)
	}
	if err := daemon.RemovePID(abs); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	_ = os.Remove(daemon.SocketPath(abs))

	fmt.Fprintf(cmd.OutOrStdout(), "stopped pgls for %s (pid %d)\n", abs, pid)
	return nil
}

// NewRunServerCommand creates the run-server command: it listens on the
// project's Unix-domain socket and serves one internal/lsp.Server per
// accepted connection until signalled.
func NewRunServerCommand(getConfig func(context.Context) *config.Config, getLogger func(context.Context) *slog.Logger) *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:    "run-server",
		Short:  "Run the pgls server in the foreground",
		Hidden: true,
		Long: `Run the pgls LSP server in the foreground, listening on the project's
Unix-domain socket. Usually started indirectly through start, not invoked
directly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, getLogger(cmd.Context()), projectDir)
		},
	}
	cmd.Flags().StringVar(&projectDir, "project-dir", ".", "project to serve")
	return cmd
}

func runServe(cmd *cobra.Command, logger *slog.Logger, projectDir string) error {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("run-server: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	socketPath := daemon.SocketPath(abs)
	_ = os.Remove(socketPath)
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("run-server: listening on %s: %w", socketPath, err)
	}
	defer listener.Close()

	if err := daemon.WritePID(abs, os.Getpid()); err != nil {
		return fmt.Errorf("run-server: %w", err)
	}
	defer daemon.RemovePID(abs)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return acceptLoop(egctx, listener, logger)
	})
	eg.Go(func() error {
		<-egctx.Done()
		return listener.Close()
	})

	logger.Info("pgls run-server listening", "socket", socketPath, "project_dir", abs)
	if err := eg.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func acceptLoop(ctx context.Context, listener net.Listener, logger *slog.Logger) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go serveConn(conn, logger)
	}
}

func serveConn(conn net.Conn, logger *slog.Logger) {
	defer conn.Close()
	server := lsp.NewServerWithLogger(conn, conn, logger)
	if err := server.Run(); err != nil {
		logger.Error("lsp connection ended with error", "error", err)
	}
}

// NewLSPProxyCommand creates the lsp-proxy command: editors spawn this
// over stdio and it forwards bytes to/from the shared run-server process's
// socket, so one daemon backs every editor window on a project.
func NewLSPProxyCommand(getConfig func(context.Context) *config.Config) *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:   "lsp-proxy",
		Short: "Proxy stdio LSP traffic to the shared pgls background server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSPProxy(cmd, projectDir)
		},
	}
	cmd.Flags().StringVar(&projectDir, "project-dir", ".", "project whose server to connect to")
	return cmd
}

func runLSPProxy(cmd *cobra.Command, projectDir string) error {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("lsp-proxy: %w", err)
	}

	conn, err := net.Dial("unix", daemon.SocketPath(abs))
	if err != nil {
		return fmt.Errorf("lsp-proxy: connecting to %s: %w", daemon.SocketPath(abs), err)
	}
	defer conn.Close()

	errCh := make(chan error, 2)
	go func() {
		_, err := io.Copy(conn, cmd.InOrStdin())
		errCh <- err
	}()
	go func() {
		_, err := io.Copy(cmd.OutOrStdout(), conn)
		errCh <- err
	}()
	return <-errCh
}

// NewPrintSocketCommand creates the print-socket command.
func NewPrintSocketCommand(getConfig func(context.Context) *config.Config) *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:   "print-socket",
		Short: "Print the Unix-domain socket path for this project's server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(projectDir)
			if err != nil {
				return fmt.Errorf("print-socket: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), daemon.SocketPath(abs))
			return nil
		},
	}
	cmd.Flags().StringVar(&projectDir, "project-dir", ".", "project whose socket path to print")
	return cmd
}
