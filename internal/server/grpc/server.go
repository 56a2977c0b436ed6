// Package grpc serves the task API over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	"google.golang.org/grpc"
)

type AccountService interface {
	Register(ctx context.Context, username, password string) (*models.Account, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type TaskService interface {
	Create(ctx context.Context, username, title, description string, dueDate time.Time) (*models.Task, error)
	List(ctx context.Context, username, sortKey string) ([]*models.Task, error)
	Get(ctx context.Context, taskID, username string) (*models.Task, error)
	Edit(ctx context.Context, taskID, username, title, description string, dueDate time.Time) (*models.Task, error)
	Toggle(ctx context.Context, taskID, username string) (*models.Task, error)
	Delete(ctx context.Context, taskID, username string) error
}

type ExtensionService interface {
	Extend(ctx context.Context, taskID, username string, days int) (*models.Task, error)
	Preview(ctx context.Context, taskID, username string, days int) (*services.ExtensionPreview, error)
	EligibleTasks(ctx context.Context, username string) ([]*models.Task, error)
}

type GRPCServer struct {
	address    string
	accounts   AccountService
	tasks      TaskService
	extensions ExtensionService
	clock      timex.Clock
	logger     logging.Logger
	jwtSecret  []byte
	extra      []grpc.UnaryServerInterceptor
}

func NewGRPCServer(a string, l logging.Logger, as AccountService, ts TaskService, es ExtensionService,
	clock timex.Clock, secretKey string, interceptors ...grpc.UnaryServerInterceptor) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		accounts:   as,
		tasks:      ts,
		extensions: es,
		clock:      clock,
		jwtSecret:  []byte(secretKey),
		extra:      interceptors,
	}
}

// newServer builds the grpc.Server with the token interceptor first.
func (s *GRPCServer) newServer() *grpc.Server {
	chain := append([]grpc.UnaryServerInterceptor{s.accessTokenInterceptor}, s.extra...)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))
	RegisterTodoServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
