// Command ampnode is the embedded/Linux VoIP radio-bridge node: it wires
// the core (Router, Bridge, Lines, EventLoop) to its ambient collaborators
// (config, logging, HTTP status, the service thread) and drives the
// primary tick loop until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"ampnode/audiocodec"
	"ampnode/bridge"
	"ampnode/clock"
	"ampnode/config"
	"ampnode/eventloop"
	"ampnode/httpapi"
	"ampnode/line"
	"ampnode/logx"
	"ampnode/message"
	"ampnode/metrics"
	"ampnode/router"
	"ampnode/svcthread"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n%s\n", r, debug.Stack())
			exitCode = 1
		}
	}()

	configPath := pflag.String("config", defaultConfigPath(), "path to the JSON configuration file")
	httpPort := pflag.Uint16("httpport", 8080, "HTTP status/config UI port")
	trace := pflag.Bool("trace", false, "enable verbose trace logging")
	pflag.Parse()

	level := slog.LevelInfo
	if *trace {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	logger := slog.New(handler)
	log := logx.New(logger, logx.NewRing(512))
	// The HTTP and service goroutines log through their own handle so the
	// ring above stays filled by the primary loop alone.
	bgLog := logx.New(logger, nil)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn("initial config load failed", "err", err)
		return 1
	}
	cfg.HTTPPort = *httpPort
	cfg.Trace = *trace

	// cfgStore holds the published Config snapshot; the HTTP goroutine reads
	// it, and its config-save handler replaces it wholesale. A reload
	// publishes a new value rather than mutating the old one in place.
	var cfgStore atomic.Pointer[config.Config]
	cfgStore.Store(&cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clk := clock.NewStd()
	r := router.New()
	br := bridge.New(bridge.ModeNormal, r, 8000, log)

	onMessage := makeMessageIngest(br, clk.NowMs)

	rt, err := config.Apply(cfg, config.Deps{
		IAX2Transport: noopIAX2Transport{},
		USBNativeHz:   48000,
		InternalHz:    8000,
		OnMessage:     onMessage,
		Log:           log,
	})
	if err != nil {
		log.Warn("config apply failed, starting with no Lines wired", "err", err)
		rt = &config.Runtime{}
	}

	runnables := []eventloop.Runnable{}
	if rt.IAX2 != nil {
		r.AddRoute(rt.IAX2)
		runnables = append(runnables, rt.IAX2)
	}
	if rt.USB != nil {
		r.AddRoute(rt.USB)
		runnables = append(runnables, rt.USB)
	}
	if rt.SDRC != nil {
		r.AddRoute(rt.SDRC)
		runnables = append(runnables, rt.SDRC)
	}
	runnables = append(runnables, bridgeRunnable{br})

	loop := eventloop.New(clk.NowMs, runnables...)

	// Registered on the default registry, which is what the /metrics route's
	// promhttp.Handler serves.
	m := metrics.New(prometheus.DefaultRegisterer)

	httpSrv := httpapi.New(
		func() config.Config { return *cfgStore.Load() },
		func() httpapi.StatusSnapshot {
			return httpapi.StatusSnapshot{
				Node:         cfgStore.Load().Node,
				DroppedTotal: r.DroppedCount(),
				RecentLog:    log.Ring().Snapshot(),
			}
		},
		func(newCfg config.Config) error { cfgStore.Store(&newCfg); return nil },
		r, bgLog,
	)
	go func() {
		if err := httpSrv.Run(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
			bgLog.Warn("http server stopped", "err", err)
		}
	}()

	svcOutbound := make(chan message.Message, 64)
	svc := svcthread.New("", cfg.Node, svcthread.LocalRegistryStd{}, svcOutbound, func() svcthread.Stats {
		return svcthread.Stats{Node: cfgStore.Load().Node}
	}, bgLog)
	go svc.Run(ctx, 30*time.Second)

	log.Info("ampnode starting", "node", cfg.Node, "httpport", cfg.HTTPPort)

	ticks := 0
	loop.RunUntilStopped(func() {
		select {
		case <-ctx.Done():
			loop.Stop()
			return
		case msg := <-svcOutbound:
			r.Send(msg)
		default:
		}
		ticks++
		if ticks%50 == 0 {
			m.ObserveRouter(r)
		}
		time.Sleep(time.Millisecond)
	})

	log.Info("ampnode shutting down")
	return 0
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "amp-server.json"
	}
	return home + "/amp-server.json"
}

// makeMessageIngest routes an inbound Message from any Line into the
// Bridge's per-call SequencingBuffer, or handles call setup/teardown
// Signals by (de)registering the call. nowMs supplies the local arrival
// time Message itself does not carry.
func makeMessageIngest(br *bridge.Bridge, nowMs func() uint32) func(message.Message) {
	return func(msg message.Message) {
		local := nowMs()
		switch msg.Type {
		case message.TypeAudio:
			br.ConsumeVoice(msg.SourceCallID, msg.Payload, msg.RemoteTimeMs, local)
		case message.TypeSignal:
			switch msg.Signal.Kind {
			case message.SignalCallStart:
				br.AddCall(msg.SourceCallID, msg.DestAddress, 8000, audiocodec.New(audiocodec.TagPCM16))
			case message.SignalCallEnd:
				br.RemoveCall(msg.SourceCallID)
			default:
				br.ConsumeSignal(msg.SourceCallID, msg.Signal, msg.RemoteTimeMs, local)
			}
		}
	}
}

// bridgeRunnable adapts Bridge.Tick onto the eventloop.Ticker interface;
// Bridge has no Poll-time work of its own.
type bridgeRunnable struct {
	br *bridge.Bridge
}

func (b bridgeRunnable) Poll(nowMs uint32) {}
func (b bridgeRunnable) Tick(nowMs uint32) { b.br.Tick(nowMs) }

// noopIAX2Transport is the out-of-core IAX2 wire protocol boundary; a real
// deployment supplies a concrete transport here.
type noopIAX2Transport struct{}

func (noopIAX2Transport) Open() error                    { return nil }
func (noopIAX2Transport) Close() error                   { return nil }
func (noopIAX2Transport) RecvFrames() []line.IAX2Frame    { return nil }
func (noopIAX2Transport) SendAudio(uint32, message.CodecTag, []byte, uint32) error { return nil }
func (noopIAX2Transport) SendSignal(uint32, message.Signal) error { return nil }
