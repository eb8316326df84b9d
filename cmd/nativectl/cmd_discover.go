package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/nativectl/internal/config"
	"github.com/danmuck/nativectl/internal/dashboard"
	"github.com/danmuck/nativectl/internal/observability"
	"github.com/danmuck/nativectl/internal/probe"
	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/noise"
	"github.com/danmuck/nativectl/internal/protocol/session"
	"github.com/danmuck/nativectl/internal/report"
)

func init() {
	const (
		short = "Connect to a device and list its entities and REST endpoints"
		long  = `
The encryption key is the device's api.encryption.key (noise_psk). It is
taken from --key, then the NATIVECTL_KEY environment variable (a .env file
in the working directory is honoured), then the config file.
`
	)
	if _, err := parser.AddCommand("discover", short, long, &cmdDiscover{}); err != nil {
		panic(err)
	}
}

type cmdDiscover struct {
	Config      string `long:"config" short:"c" value-name:"FILE" description:"TOML settings file"`
	Key         string `long:"key" short:"k" value-name:"BASE64" description:"API encryption key"`
	Password    string `long:"password" short:"p" description:"Legacy API password"`
	Port        int    `long:"port" description:"Native API port (default 6053)"`
	Test        bool   `long:"test" description:"GET every readable REST endpoint"`
	Time        bool   `long:"time" description:"Print only totals and the execution time"`
	JS          string `long:"js" value-name:"DIR" description:"Write a JavaScript dashboard into DIR"`
	TS          string `long:"ts" value-name:"DIR" description:"Write a TypeScript dashboard into DIR"`
	MetricsFile string `long:"metrics-file" value-name:"FILE" description:"Write metrics in Prometheus text format after the run"`
	Attempts    int    `long:"attempts" description:"Retry transport failures up to this many attempts"`

	Positional struct {
		Host string `positional-arg-name:"HOST"`
	} `positional-args:"yes"`
}

func (x *cmdDiscover) Execute([]string) error {
	cfg, err := x.settings()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runDiscover(ctx, cfg)
}

// settings merges file, environment and flags, in increasing precedence.
func (x *cmdDiscover) settings() (config.Config, error) {
	cfg := config.Default()
	if x.Config != "" {
		var err error
		if cfg, err = config.LoadFile(x.Config); err != nil {
			return config.Config{}, err
		}
	}
	if key := strings.TrimSpace(os.Getenv(keyEnv)); key != "" {
		cfg.Key = key
	}

	if x.Positional.Host != "" {
		cfg.Host = x.Positional.Host
	}
	if x.Key != "" {
		cfg.Key = x.Key
	}
	if x.Password != "" {
		cfg.Password = x.Password
	}
	if x.Port != 0 {
		cfg.Port = x.Port
	}
	if x.Attempts != 0 {
		cfg.Attempts = x.Attempts
	}
	if x.Test {
		cfg.Test = true
	}
	if x.Time {
		cfg.Timed = true
	}
	if x.MetricsFile != "" {
		cfg.MetricsFile = x.MetricsFile
	}
	switch {
	case x.JS != "" && x.TS != "":
		return config.Config{}, fmt.Errorf("%w: --js and --ts are mutually exclusive", protocol.ErrConfiguration)
	case x.JS != "":
		cfg.DashboardDir, cfg.DashboardLang = x.JS, config.LangJS
	case x.TS != "":
		cfg.DashboardDir, cfg.DashboardLang = x.TS, config.LangTS
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runDiscover(ctx context.Context, cfg config.Config) (err error) {
	start := time.Now()
	observability.RegisterMetrics()
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := observability.WriteTextfile(cfg.MetricsFile); werr != nil {
				log.Warn().Msgf("nativectl metrics file=%s err=%v", cfg.MetricsFile, werr)
			}
		}()
	}

	sc, err := cfg.Session()
	if err != nil {
		return err
	}
	if !cfg.Timed {
		fmt.Fprintf(Stdout, "Connecting to %s...\n", sc.Address)
		sc.OnConnect = func(noise.ServerHello) {
			fmt.Fprintf(Stdout, "Connected successfully!\n\n")
		}
	}

	var res *session.Result
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	err = session.Retry(ctx, sc.Clock, sc.Backoff, cfg.Attempts, rng, func(attempt int) error {
		var err error
		res, err = session.Discover(ctx, sc)
		return err
	})
	if protocol.IsPeerDisconnect(err) {
		// a clean close, but nothing was discovered
		fmt.Fprintf(Stdout, "Device %s closed the connection before discovery finished.\n", cfg.Host)
		log.Warn().Msgf("nativectl discover host=%s peer disconnected", cfg.Host)
		return nil
	}
	if err != nil {
		if cfg.Timed {
			_ = report.WriteElapsed(Stdout, time.Since(start))
		}
		return err
	}

	rep := report.New(cfg.Host, res)
	if cfg.Timed {
		err = rep.WriteSummary(Stdout)
	} else {
		err = rep.WriteFull(Stdout)
	}
	if err != nil {
		return err
	}

	base := rep.BaseURL()
	var probeErr error
	if cfg.Test {
		outcomes := probe.New(cfg.ProbeTimeout).Run(ctx, base, rep.Endpoints)
		if err := report.WriteProbe(Stdout, outcomes, cfg.Timed); err != nil {
			return err
		}
		probeErr = probe.Failures(outcomes)
	}

	if cfg.DashboardDir != "" {
		written, err := dashboard.Generate(cfg.DashboardDir, cfg.DashboardLang, dashboard.Data{
			Host:       strings.TrimPrefix(base, "http://"),
			DeviceName: rep.DeviceName(),
			Endpoints:  rep.Endpoints,
		})
		if err != nil {
			return err
		}
		if !cfg.Timed {
			fmt.Fprintf(Stdout, "Dashboard written to %s (%d files)\n", cfg.DashboardDir, len(written))
		}
	}

	if cfg.Timed {
		if err := report.WriteElapsed(Stdout, time.Since(start)); err != nil {
			return err
		}
	}
	return probeErr
}
