package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"riskgate/internal/audit"
	"riskgate/internal/engine"
	"riskgate/internal/journal"
	"riskgate/internal/obs"
	"riskgate/internal/ops"
	"riskgate/internal/rule"
	"riskgate/internal/server"
	"riskgate/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	flag.Parse()

	prog := filepath.Base(os.Args[0])

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	cfg = cfg.Resolve(prog)

	if arg := flag.Arg(0); arg != "" {
		port, err := strconv.Atoi(arg)
		if err != nil || port < 0 {
			log.Fatalf("invalid port: %s", arg)
		}
		if port > 0 {
			cfg.Server.Port = port
		}
	}

	if crash, err := os.OpenFile(prog+".SIGSEGV", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
		_ = debug.SetCrashOutput(crash, debug.CrashOptions{})
	}

	logs.Infof("%s starting...", prog)
	start := time.Now()

	if cfg.Profile.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: prog,
			ServerAddress:   cfg.Profile.ServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := obs.NewMetrics()
	eng := engine.New(cfg.Engine, metrics)

	rules := rule.Install(eng, cfg.Rules)
	defer rule.CloseAll(rules)

	jnl, err := journal.New(cfg.Journal)
	if err != nil {
		log.Fatalf("journal init failed: %v", err)
	}
	if err := jnl.Load(ctx, eng); err != nil {
		logs.Errorf("journal load failed: %+v", err)
	}
	jnl.Attach(eng)
	if err := jnl.Start(ctx); err != nil {
		log.Fatalf("journal start failed: %v", err)
	}

	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		client, err := conn.New(cfg.Audit.Postgres)
		if err != nil {
			log.Fatalf("audit connect failed: %v", err)
		}
		auditStore, err = audit.Open(client)
		if err != nil {
			log.Fatalf("audit init failed: %v", err)
		}
		auditStore.Attach(eng)
		auditStore.Start(ctx)
	}

	srv, err := server.New(cfg.Server, eng, metrics)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("server start failed: %v", err)
	}

	logs.Infof("%s started in %s", prog, time.Since(start))

	<-sys.Shutdown()

	logs.Infof("%s stopping...", prog)
	srv.Stop()
	jnl.Close()
	if auditStore != nil {
		auditStore.Close()
	}

	snap := metrics.Snapshot()
	logs.Infof("metrics: events=%v rejects=%v accepted=%d queue_drops=%d check_latency=%+v",
		snap.EventCounts, snap.RejectCounts, snap.Accepted, snap.QueueDrops, snap.CheckLatency)
	logs.Infof("%s stopped", prog)
}
