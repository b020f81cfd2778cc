// Command serialterm is a line-oriented serial port terminal.
//
// It opens a serial port, sends every line read from stdin and prints received data to stdout.
// Lines starting with ':' are commands, see ":help". Diagnostics are logged to stderr; set
// ENV=development for human readable logs.
//
// Usage:
//
//	serialterm -list
//	serialterm -port /dev/ttyUSB0 -baud 115200 -format hex -record
//	serialterm -config serialterm.yaml -metrics :9100
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/miroslavpetrov/Serial-Console-Pro/config"
	"github.com/miroslavpetrov/Serial-Console-Pro/internal/task"
	"github.com/miroslavpetrov/Serial-Console-Pro/logger"
	"github.com/miroslavpetrov/Serial-Console-Pro/session"
	"github.com/miroslavpetrov/Serial-Console-Pro/terminal"
	"github.com/miroslavpetrov/Serial-Console-Pro/transport"
)

var log logger.Logger

type flags struct {
	list       bool
	configPath string
	record     bool
	cfg        config.Config
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("serialterm", flag.ContinueOnError)

	f := &flags{}
	fs.BoolVar(&f.list, "list", false, "list available serial ports and exit")
	fs.StringVar(&f.configPath, "config", "", "path to a YAML configuration file")
	fs.BoolVar(&f.record, "record", false, "record tx/rx lines and save them on exit")

	port := fs.String("port", "", "serial port path, e.g. /dev/ttyUSB0 or COM3")
	baud := fs.Int("baud", 0, "baud rate")
	dataBits := fs.Int("databits", 0, "data bits (5-8)")
	stopBits := fs.String("stopbits", "", "stop bits (1, 1.5, 2)")
	parity := fs.String("parity", "", "parity (none, odd, even, mark, space)")
	format := fs.String("format", "", "display format (ascii, hex)")
	crlf := fs.Bool("crlf", true, "append CRLF to sent ASCII lines")
	echo := fs.Bool("echo", true, "echo sent lines")
	lang := fs.String("lang", "", "status line language (en, de)")
	lineRate := fs.Float64("line-rate", 0, "maximum sent lines per second, 0 for unlimited")
	metrics := fs.String("metrics", "", "serve prometheus metrics on this address, e.g. :9100")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	// explicitly set flags win over file and environment
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Port.Path = *port
		case "baud":
			cfg.Port.BaudRate = *baud
		case "databits":
			cfg.Port.DataBits = *dataBits
		case "stopbits":
			cfg.Port.StopBits = *stopBits
		case "parity":
			cfg.Port.Parity = *parity
		case "format":
			cfg.Terminal.Format = *format
		case "crlf":
			cfg.Terminal.AppendCRLF = *crlf
		case "echo":
			cfg.Terminal.LocalEcho = *echo
		case "lang":
			cfg.Terminal.Language = *lang
		case "line-rate":
			cfg.Terminal.LineRate = *lineRate
		case "metrics":
			cfg.Metrics.Listen = *metrics
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f.cfg = cfg

	return f, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	f, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "serialterm:", err)
		return 2
	}

	level, _ := f.cfg.LogLevel()
	log = logger.NewSlog(level, f.cfg.Log.AddSource)
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := terminal.NewWriter(stdout, f.cfg.Terminal.Timestamps)
	recorder := terminal.NewRecorder()
	sink := terminal.NewBroadcaster()
	sink.Subscribe("stdout", writer)
	sink.Subscribe("recorder", recorder)

	opts, _ := f.cfg.SessionOptions()
	opts = append(opts, session.WithLogger(log))

	sess, err := session.NewSession(ctx, transport.NewGurux(log), sink, opts...)
	if err != nil {
		log.Error("failed to create session", "error", err)
		return 1
	}
	defer sess.Shutdown()

	if f.list {
		for _, p := range sess.ListAvailablePorts() {
			fmt.Fprintln(stdout, p.String())
		}
		return 0
	}

	if f.cfg.Metrics.Listen != "" {
		srv, err := serveMetrics(f.cfg.Metrics.Listen, sess)
		if err != nil {
			log.Error("failed to register metrics", "error", err)
			return 1
		}
		defer srv.Close()
	}

	app := &app{
		sess:      sess,
		sink:      sink,
		recorder:  recorder,
		recordDir: f.cfg.Terminal.RecordDir,
		cfg:       f.cfg,
		out:       stdout,
		limiter:   newLineLimiter(f.cfg.Terminal.LineRate),
	}

	if f.record {
		app.startRecording()
	}
	defer app.saveRecording()

	if f.cfg.Port.Path == "" {
		sink.Emit(terminal.NewLine(terminal.Warning, sess.Printer().Sprintf(terminal.MsgNoPortSelected)))
	} else if err := app.open(f.cfg.Port.Path); err != nil {
		return 1
	}

	tasks := task.NewManager(ctx, log)
	if interval := f.cfg.Terminal.StatusInterval; interval > 0 {
		err := tasks.StartInterval("status", func(context.Context) bool {
			if sess.IsConnected() {
				app.printStatus()
			}
			return true
		}, interval, false)
		if err != nil {
			log.Error("failed to start status task", "error", err)
		}
	}
	defer func() {
		tasks.Stop()
		tasks.Wait()
	}()

	app.readLoop(ctx, stdin)

	return 0
}

func serveMetrics(addr string, sess *session.Session) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	if err := session.RegisterMetrics(reg, sess, nil); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)

	return srv, nil
}

// app is the interactive state of the terminal.
type app struct {
	sess      *session.Session
	sink      terminal.Sink
	recorder  *terminal.Recorder
	recordDir string
	cfg       config.Config
	out       io.Writer
	limiter   *rate.Limiter // nil when unlimited
}

func newLineLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (a *app) info(dir terminal.Direction, key string, args ...any) {
	a.sink.Emit(terminal.NewLine(dir, a.sess.Printer().Sprintf(key, args...)))
}

func (a *app) open(path string) error {
	a.cfg.Port.Path = path
	pc, err := a.cfg.PortConfig()
	if err != nil {
		a.info(terminal.Error, terminal.MsgInvalidInput, err.Error())
		return err
	}

	// the session reports open failures itself
	return a.sess.Open(pc)
}

func (a *app) startRecording() {
	a.recorder.Enable()
	a.info(terminal.Info, terminal.MsgLoggingEnabled)
}

func (a *app) saveRecording() {
	a.recorder.Disable()
	if a.recorder.Len() == 0 {
		return
	}

	path := filepath.Join(a.recordDir, terminal.LogFileName(time.Now()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Error("failed to save log", "path", path, "error", err)
		a.info(terminal.Error, terminal.MsgError, err.Error())
		return
	}
	defer file.Close()

	if _, err := a.recorder.WriteTo(file); err != nil {
		log.Error("failed to write log", "path", path, "error", err)
		a.info(terminal.Error, terminal.MsgError, err.Error())
		return
	}
	_, _ = io.WriteString(file, "\n")

	a.info(terminal.Success, terminal.MsgLogSaved, path)
}

func (a *app) printStatus() {
	stats := a.sess.Stats()
	state := a.sess.State().String()
	if pc := a.sess.PortConfig(); pc != nil {
		state = pc.String()
	}
	a.info(terminal.Info, terminal.MsgStatus,
		state,
		terminal.FormatBytes(stats.RxBytes),
		terminal.FormatBytes(stats.TxBytes),
		terminal.FormatUptime(a.sess.Uptime()),
	)
}

func (a *app) readLoop(ctx context.Context, stdin io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Warn("stdin read failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.HasPrefix(line, ":") {
				if quit := a.command(line); quit {
					return
				}
				continue
			}
			if a.limiter != nil {
				if err := a.limiter.Wait(ctx); err != nil {
					return
				}
			}
			// failures are reported to the sink by the session
			_ = a.sess.SendInput(line)
		}
	}
}
