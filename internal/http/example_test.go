package http_test

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/tasklist/internal/auth"
	httpserver "github.com/fyrsmithlabs/tasklist/internal/http"
	"github.com/fyrsmithlabs/tasklist/internal/logging"
	"github.com/fyrsmithlabs/tasklist/internal/session"
	"github.com/fyrsmithlabs/tasklist/internal/store"
	"github.com/fyrsmithlabs/tasklist/internal/tasks"
)

// ExampleServer wires the services and serves until interrupted.
func ExampleServer() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
	if err != nil {
		panic(err)
	}

	st, err := store.Open(ctx, "tasks.db", logger.Underlying())
	if err != nil {
		panic(err)
	}
	defer st.Close()

	authSvc, _ := auth.NewService(nil, st.DB(), logger.Underlying())
	taskSvc, _ := tasks.NewService(st.DB(), logger.Underlying())
	codec, _ := session.NewCodec([]byte("change-me-to-a-long-random-secret"))

	server, err := httpserver.NewServer(&httpserver.Config{
		Host:            "localhost",
		Port:            5000,
		ShutdownTimeout: 10 * time.Second,
	}, httpserver.Deps{
		Auth:     authSvc,
		Tasks:    taskSvc,
		Sessions: session.NewStore(24 * time.Hour),
		Codec:    codec,
		Store:    st,
	}, logger)
	if err != nil {
		panic(err)
	}

	if err := server.Start(ctx); err != nil {
		logger.Underlying().Error("server stopped", zap.Error(err))
	}
	fmt.Println("server stopped")
}
