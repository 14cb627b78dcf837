package ipc_test

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"framecast/internal/animation"
	"framecast/internal/frameserver"
	"framecast/internal/ipc"
	"framecast/internal/keyframe"
	"framecast/internal/logging"
	"framecast/internal/mobject"
	"framecast/internal/scene"
)

func startServer(t *testing.T, source ipc.FrameSource, workers int) *ipc.Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, "127.0.0.1:0", workers, source, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(srv.Addr(), time.Second)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

func startScene(t *testing.T, opts scene.Options, units int) (*scene.Scene, *frameserver.Service) {
	t.Helper()
	opts.Name = "ipc_scene"
	opts.Logger = logging.NewNop()
	sc := scene.New(keyframe.NewCache(opts.Logger), opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sc.Start(ctx, func(ctx context.Context, s *scene.Scene) error {
		square := mobject.Square("square", 2, mobject.DefaultStyle())
		for i := 0; i < units; i++ {
			if err := s.Play(ctx, animation.Shift(square, mobject.Point{X: 1})); err != nil {
				return err
			}
		}
		return nil
	})
	return sc, frameserver.New(sc, frameserver.Options{SessionID: "sess", Logger: opts.Logger})
}

func waitLive(t *testing.T, sc *scene.Scene, index int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := sc.State(); st.Live != nil && st.Live.Index == index {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("unit %d never became live", index)
}

func TestFrameServerRoundTrip(t *testing.T) {
	sc, svc := startScene(t, scene.Options{}, 2)
	client := startServer(t, svc, 10)
	waitLive(t, sc, 0)

	frame, err := client.GetFrameAtTime(0, 0.5)
	if err != nil {
		t.Fatalf("GetFrameAtTime: %v", err)
	}
	if frame.FramePending || frame.Skipped || frame.AnimationName != "Shift(square)" {
		t.Fatalf("unexpected frame %+v", frame)
	}
	if len(frame.Mobjects) != 1 || len(frame.Mobjects[0].Points) != 5 {
		t.Fatalf("unexpected mobjects %+v", frame.Mobjects)
	}
	if frame.Mobjects[0].Style.StrokeColor == "" || !frame.Mobjects[0].NeedsRedraw {
		t.Fatalf("unexpected style %+v", frame.Mobjects[0])
	}

	pending, err := client.GetFrameAtTime(0, 1.5)
	if err != nil {
		t.Fatalf("GetFrameAtTime: %v", err)
	}
	if !pending.FramePending || len(pending.Mobjects) != 0 {
		t.Fatalf("expected pending frame, got %+v", pending)
	}
	waitLive(t, sc, 1)

	status, err := client.RendererStatus()
	if err != nil {
		t.Fatalf("RendererStatus: %v", err)
	}
	if status.SceneName != "ipc_scene" || status.SessionID != "sess" || status.CachedUnits != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.LiveUnit == nil || status.LiveUnit.Index != 1 || status.LiveUnit.Kind != "play" {
		t.Fatalf("unexpected live unit %+v", status.LiveUnit)
	}

	if err := client.UpdateSceneLocation(); err != nil {
		t.Fatalf("UpdateSceneLocation: %v", err)
	}
}

func TestFrameServerSurfacesErrors(t *testing.T) {
	sc, svc := startScene(t, scene.Options{}, 1)
	client := startServer(t, svc, 10)
	waitLive(t, sc, 0)

	_, err := client.GetFrameAtTime(4, 0)
	if err == nil {
		t.Fatal("expected skip forward error")
	}
	if !strings.Contains(err.Error(), "not implemented") {
		t.Fatalf("expected not implemented error, got %v", err)
	}
}

func TestFrameServerSkipMode(t *testing.T) {
	sc, svc := startScene(t, scene.Options{SkipAnimations: true}, 2)
	client := startServer(t, svc, 10)
	select {
	case <-sc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("skip-mode scene did not finish")
	}

	frame, err := client.GetFrameAtTime(0, 0.2)
	if err != nil {
		t.Fatalf("GetFrameAtTime: %v", err)
	}
	if !frame.Skipped || frame.Mobjects != nil {
		t.Fatalf("expected skipped frame, got %+v", frame)
	}
}

type blockingSource struct {
	active  atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (b *blockingSource) FrameAtTime(frameserver.Request) (*frameserver.Response, error) {
	n := b.active.Add(1)
	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	<-b.release
	b.active.Add(-1)
	return &frameserver.Response{Duration: 1}, nil
}

func (b *blockingSource) Status() frameserver.Status {
	return frameserver.Status{SceneName: "blocking"}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	source := &blockingSource{release: make(chan struct{})}
	client := startServer(t, source, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.GetFrameAtTime(0, 0); err != nil {
				t.Errorf("GetFrameAtTime: %v", err)
			}
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for source.active.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if got := source.active.Load(); got != 2 {
		t.Fatalf("expected 2 active workers, got %d", got)
	}
	close(source.release)
	wg.Wait()
	if peak := source.peak.Load(); peak > 2 {
		t.Fatalf("worker pool exceeded its bound: peak %d", peak)
	}
}

type fakeRenderer struct {
	mu     sync.Mutex
	scenes []string
	ready  []int
}

func (f *fakeRenderer) Status(req ipc.StatusRequest, _ *ipc.StatusResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scenes = append(f.scenes, req.SceneName)
	return nil
}

func (f *fakeRenderer) AnimationReady(req ipc.AnimationReadyRequest, _ *ipc.AnimationReadyResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = append(f.ready, req.UnitIndex)
	return nil
}

func startFakeRenderer(t *testing.T) (string, *fakeRenderer) {
	t.Helper()
	renderer := &fakeRenderer{}
	server := rpc.NewServer()
	if err := server.RegisterName("Renderer", renderer); err != nil {
		t.Fatalf("RegisterName: %v", err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go server.ServeCodec(jsonrpc.NewServerCodec(conn))
		}
	}()
	return listener.Addr().String(), renderer
}

func TestRendererClient(t *testing.T) {
	addr, renderer := startFakeRenderer(t)
	client := ipc.NewRendererClient(addr, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Status(ctx, "square_to_circle"); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if err := client.AnimationReady(ctx, "square_to_circle", 3); err != nil {
		t.Fatalf("AnimationReady: %v", err)
	}

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	if len(renderer.scenes) != 1 || renderer.scenes[0] != "square_to_circle" {
		t.Fatalf("unexpected status calls %v", renderer.scenes)
	}
	if len(renderer.ready) != 1 || renderer.ready[0] != 3 {
		t.Fatalf("unexpected ready calls %v", renderer.ready)
	}
}

func TestRendererClientDialFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	client := ipc.NewRendererClient(addr, 200*time.Millisecond)
	err = client.Status(context.Background(), "x")
	var opErr *net.OpError
	if err == nil || !errors.As(err, &opErr) {
		t.Fatalf("expected *net.OpError, got %v", err)
	}
}
