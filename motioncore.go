// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package motioncore wires the trajectory evaluator (pkg/core), the
// playback scheduler (pkg/playback), and a thin HTTP/WebSocket
// binding (internal/api) into one runnable service, the same role
// nvr.Run plays for a monitor manager and web server.
package motioncore

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"motioncore/internal/api"
	"motioncore/pkg/config"
	"motioncore/pkg/core"
	"motioncore/pkg/hostload"
	"motioncore/pkg/log"
	"motioncore/pkg/playback"
	"motioncore/pkg/robot"
	"motioncore/pkg/robot/robotmock"
)

// Run loads the limits file at configPath, starts the evaluator,
// scheduler and HTTP server, and blocks until SIGINT/SIGTERM.
func Run(configPath string) error {
	app, err := newApp(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	fatal := make(chan error, 1)
	go func() { fatal <- app.run(ctx) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-fatal:
	case sig := <-stop:
		app.log.Info().Src("app").Msgf("received %v, stopping", sig)
	}

	app.scheduler.StopPlay()
	cancel()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()

	if shutdownErr := app.server.Shutdown(ctx2); shutdownErr != nil {
		return shutdownErr
	}
	return err
}

type app struct {
	log       *log.Logger
	core      *core.Core
	scheduler *playback.Scheduler
	hostload  *hostload.Monitor
	server    *http.Server
}

// newDriver returns the robot.Driver this binary runs against. Only
// the interface seam of the real robot SDK is in scope here; the
// reference binary wires a scriptable mock that reports
// connected+ready so the scheduler loop has something to drive
// end-to-end until a real driver is substituted.
func newDriver() robot.Driver {
	return robotmock.New(robotmock.Config{Connected: true, Ready: true})
}

func newApp(configPath string) (*app, error) {
	wg := &sync.WaitGroup{}

	dbPath := filepath.Join(filepath.Dir(configPath), "motioncore.db")
	logger, err := log.NewLogger(dbPath, wg)
	if err != nil {
		return nil, fmt.Errorf("could not create logger: %w", err)
	}

	limits, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not load limits: %w", err)
	}

	coreHandle := core.New(limits, logger)
	driver := newDriver()
	load := hostload.New(2*time.Second, logger)
	scheduler := playback.New(coreHandle.EvalAt, coreHandle.EvalRange, driver, limits, logger, load.Status)

	mux := http.NewServeMux()
	mux.Handle("/api/project/set", api.SetProject(coreHandle))
	mux.Handle("/api/eval_at", api.EvalAt(coreHandle))
	mux.Handle("/api/eval_range", api.PoseStream(coreHandle, logger))
	mux.Handle("/api/playback/start", api.Start(scheduler))
	mux.Handle("/api/playback/stop", api.Stop(scheduler))
	mux.Handle("/api/playback/seek", api.Seek(scheduler))
	mux.Handle("/api/playback/state", api.State(scheduler))

	server := &http.Server{Addr: ":8088", Handler: mux}

	return &app{
		log:       logger,
		core:      coreHandle,
		scheduler: scheduler,
		hostload:  load,
		server:    server,
	}, nil
}

func (a *app) run(ctx context.Context) error {
	go a.log.Start(ctx)
	go a.log.LogToStdout(ctx)
	go a.log.LogToDB(ctx)
	go a.hostload.Run(ctx)

	time.Sleep(10 * time.Millisecond)
	a.log.Info().Src("app").Msg("starting")

	return a.server.ListenAndServe()
}
