package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	testhelpers "github.com/polkiloo/storefront/internal/test"
	"github.com/polkiloo/storefront/internal/worker"
)

func newTestReconciler() *worker.Reconciler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return worker.NewReconciler(&testhelpers.WorkerFacadeStub{}, 10*time.Millisecond, logger)
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestNewReconcilerUsesConfig(t *testing.T) {
	rec := newReconciler(workerParams{
		Facade: &StorefrontFacade{},
		Config: &config.Config{ReconcileInterval: 15 * time.Second},
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	if rec == nil {
		t.Fatal("expected reconciler instance")
	}
	if rec.Interval() != 15*time.Second {
		t.Fatalf("expected configured interval, got %v", rec.Interval())
	}
}

func TestNewStorefrontFacadeFromParams(t *testing.T) {
	feed := &testhelpers.BankFeedStub{}
	facade := newStorefrontFacade(facadeParams{Feed: feed})
	if facade == nil || facade.feed != feed {
		t.Fatal("expected facade wired with bank feed")
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	worker := newTestReconciler()
	cfg := &config.Config{ShutdownTimeout: 100 * time.Millisecond}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     server,
		Worker:     worker,
		Config:     cfg,
	})

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := recorder.Start(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = recorder.Stop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	server := &http.Server{Addr: "bad addr"}
	worker := newTestReconciler()

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     server,
		Worker:     worker,
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})

	hook := recorder.Hooks[0]
	if err := hook.OnStart(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = hook.OnStop(context.Background())
}

func TestWorkerFacadeStubRecording(t *testing.T) {
	facade := &testhelpers.WorkerFacadeStub{}
	if _, err := facade.ImportBankFeed(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := facade.ScanAndAutoConfirm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imports, sweeps := facade.Counts(); imports != 1 || sweeps != 1 {
		t.Fatalf("expected one import and one sweep, got %d and %d", imports, sweeps)
	}
}

func TestLifecycleRecorderRunsHooksInFxOrder(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	var calls []string
	hook := func(name string) fx.Hook {
		return fx.Hook{
			OnStart: func(context.Context) error { calls = append(calls, "start "+name); return nil },
			OnStop:  func(context.Context) error { calls = append(calls, "stop "+name); return nil },
		}
	}
	recorder.Append(hook("db"))
	recorder.Append(fx.Hook{})
	recorder.Append(hook("http"))

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	if err := recorder.Stop(context.Background()); err != nil {
		t.Fatalf("stop returned error: %v", err)
	}
	want := []string{"start db", "start http", "stop http", "stop db"}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
}

func TestShutdownerStub(t *testing.T) {
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	if err := shutdowner.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-shutdowner.Called:
	default:
		t.Fatal("expected shutdown notification")
	}
}
