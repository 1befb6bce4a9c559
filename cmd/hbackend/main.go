package main

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/backends"
	"github.com/reusee/hanalyzer/cmds"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/modes"
	"github.com/reusee/hanalyzer/vars"
)

var (
	listenFlag     = cmds.Var[string]("-listen")
	grpcListenFlag = cmds.Var[string]("-grpc-listen")
	chunkFlag      = cmds.Var[int]("-chunk-size")
)

func main() {
	cmds.Execute(os.Args[1:])
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scope := dscope.New(
		new(Module),
		modes.ForProduction(),
	)

	scope.Call(func(
		logger logs.Logger,
		backend *backends.Backend,
		root backends.Root,
	) {
		if *chunkFlag > 0 {
			backend.SetChunkSize(*chunkFlag)
		}
		addSynthetic(backend)

		server := &http.Server{
			Addr: vars.FirstNonZero(
				*listenFlag,
				os.Getenv("HANALYZER_LISTEN"),
				"127.0.0.1:50051",
			),
			Handler:           backend.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		if *grpcListenFlag != "" {
			ln, err := net.Listen("tcp", *grpcListenFlag)
			if err != nil {
				logger.ErrorContext(ctx, "grpc listen", "error", err)
				os.Exit(1)
			}
			grpcServer := backend.GRPCServer()
			go func() {
				<-ctx.Done()
				grpcServer.GracefulStop()
			}()
			go func() {
				logger.InfoContext(ctx, "serve grpc", "addr", ln.Addr().String())
				if err := grpcServer.Serve(ln); err != nil {
					logger.ErrorContext(ctx, "serve grpc", "error", err)
				}
			}()
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.WarnContext(ctx, "shutdown", "error", err)
			}
		}()

		logger.InfoContext(ctx, "serve",
			"addr", server.Addr,
			"root", root,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "serve", "error", err)
			os.Exit(1)
		}
	})
}

// addSynthetic registers generated series feeds and a looping session named
// "synthetic", so a bare directory is enough to exercise the client.
func addSynthetic(backend *backends.Backend) {
	backend.AddSyntheticFeed("circle", models.Point, 4, 50)
	backend.AddSyntheticFeed("ego", models.Pose, 1, 0)

	session := &backends.Session{
		Name: "synthetic",
		Loop: true,
	}
	for i := range 100 {
		angle := float64(i) / 100 * 2 * math.Pi
		session.Frames = append(session.Frames, models.Frame{
			Timestamp: float64(i) / 10,
			Entities: []models.Entity{
				{
					ID:   "ego",
					Kind: "vehicle",
					X:    10 * math.Cos(angle),
					Y:    10 * math.Sin(angle),
					Yaw:  angle + math.Pi/2,
				},
				{
					ID:   "obstacle",
					Kind: "static",
					X:    5,
				},
			},
		})
	}
	backend.AddSession(session)
}
