// ABOUTME: Entry point for the ARGON assistant
// ABOUTME: Parses CLI flags, loads config and runs the HUD or a headless line mode
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/zimcore/argon/internal/app"
	"github.com/zimcore/argon/internal/assistant"
	"github.com/zimcore/argon/internal/config"
	"github.com/zimcore/argon/internal/player"
	"github.com/zimcore/argon/internal/telemetry"
	"github.com/zimcore/argon/internal/ui"
	"github.com/zimcore/argon/internal/version"
)

var (
	configPath  = flag.String("config", "", "YAML config file (default: built-in settings)")
	envFile     = flag.String("env", ".env", "Environment file with GEMINI_API_KEY")
	relayAddr   = flag.String("relay", "", "Relay host:port; streams from a relay instead of Gemini")
	discover    = flag.Bool("discover", false, "Find a relay via mDNS")
	output      = flag.String("output", "", "Audio output: oto or malgo")
	captureName = flag.String("capture", "", "Microphone capture: malgo, portaudio or none")
	logFile     = flag.String("log-file", "argon.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable the HUD, read commands from stdin")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// The HUD owns the terminal
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	log.Printf("Starting %s", version.String())

	if useTUI {
		runTUI(cfg)
	} else {
		runHeadless(cfg)
	}

	log.Printf("ARGON offline")
}

// loadConfig reads the config file, environment and flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(*envFile); err != nil {
		return nil, err
	}

	if *relayAddr != "" {
		cfg.Relay.Addr = *relayAddr
	}
	if *discover {
		cfg.Relay.Discover = true
	}
	if *output != "" {
		cfg.Audio.Output = *output
	}
	if *captureName != "" {
		cfg.Audio.Capture = *captureName
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runTUI(cfg *config.Config) {
	tui := ui.New(cfg.Security.AdminName)

	application, err := app.New(cfg, app.Hooks{
		OnStatus:    func(st assistant.Status) { tui.Send(ui.AssistantMsg(st)) },
		OnTelemetry: func(snap telemetry.Snapshot) { tui.Send(ui.TelemetryMsg(snap)) },
		OnPlayback:  func(st player.SchedulerStats) { tui.Send(ui.PlaybackMsg(st)) },
		OnError:     func(err error) { tui.Send(ui.ErrorMsg{Err: err}) },
	})
	if err != nil {
		log.Fatalf("Failed to create assistant: %v", err)
	}
	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start assistant: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleActions(ctx, application, tui.Actions())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("Received %v signal, shutting down", sig)
			tui.Quit()
		case <-ctx.Done():
		}
	}()

	if err := tui.Run(); err != nil {
		log.Printf("TUI error: %v", err)
	}

	cancel()
	application.Close()
}

// handleActions dispatches HUD requests. Slow requests run concurrently so
// the HUD stays responsive.
func handleActions(ctx context.Context, application *app.App, actions <-chan ui.Action) {
	asst := application.Assistant()

	for {
		select {
		case action := <-actions:
			switch action.Kind {
			case ui.ActionPromptPassword:
				asst.PromptPassword()
			case ui.ActionUnlock:
				_ = asst.Unlock(action.Text)
			case ui.ActionAsk:
				go func(query string) {
					if err := asst.Ask(ctx, query); err != nil {
						log.Printf("Query failed: %v", err)
					}
				}(action.Text)
			case ui.ActionWorldwideLink:
				asst.SetWorldwideLink(action.On)
			case ui.ActionDiagnostic:
				go func() {
					if err := asst.Diagnostic(ctx); err != nil {
						log.Printf("Diagnostic failed: %v", err)
					}
				}()
			case ui.ActionDismissAlert:
				application.DismissAlert(action.Text)
			case ui.ActionTogglePower:
				if err := application.TogglePower(action.Text); err != nil {
					log.Printf("Power toggle failed: %v", err)
				}
			case ui.ActionVolume:
				application.SetVolume(action.Volume, action.On)
			}

		case <-ctx.Done():
			return
		}
	}
}

// runHeadless reads the password and then commands from stdin
func runHeadless(cfg *config.Config) {
	var (
		mu        sync.Mutex
		lastState assistant.State
	)
	application, err := app.New(cfg, app.Hooks{
		OnStatus: func(st assistant.Status) {
			mu.Lock()
			defer mu.Unlock()
			if st.State != lastState {
				lastState = st.State
				fmt.Printf("[%s]\n", st.State)
			}
		},
		OnError: func(err error) { log.Printf("Error: %v", err) },
	})
	if err != nil {
		log.Fatalf("Failed to create assistant: %v", err)
	}
	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start assistant: %v", err)
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	asst := application.Assistant()
	asst.PromptPassword()
	fmt.Println("Access key:")

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !runCommand(ctx, application, strings.TrimSpace(line)) {
				return
			}
		case sig := <-sigChan:
			log.Printf("Received %v signal, shutting down", sig)
			return
		}
	}
}

// runCommand handles one stdin line; false means quit
func runCommand(ctx context.Context, application *app.App, line string) bool {
	asst := application.Assistant()

	if !asst.State().Authorized() {
		if err := asst.Unlock(line); err != nil {
			fmt.Println(asst.Status().AuthError)
		}
		return true
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "/quit":
		return false
	case "/diag":
		if err := asst.Diagnostic(ctx); err != nil {
			log.Printf("Diagnostic failed: %v", err)
		}
	case "/link":
		asst.SetWorldwideLink(len(fields) < 2 || fields[1] != "off")
	case "/power":
		if len(fields) < 2 {
			fmt.Println("usage: /power DEVICE")
			break
		}
		if err := application.TogglePower(fields[1]); err != nil {
			fmt.Println(err)
		}
	case "/stats":
		snap := application.Telemetry().Snapshot()
		s := snap.Stats
		fmt.Printf("cpu %.1f%% mem %.1f%% latency %.1fms temp %.1fC stability %.3f%% alerts %d\n",
			s.CPU, s.Memory, s.Latency, s.Temperature, s.Stability, len(snap.Alerts))
	default:
		if err := asst.Ask(ctx, line); err != nil {
			fmt.Printf("Query failed: %v\n", err)
			break
		}
		entries := asst.Status().Transcript
		if len(entries) > 1 {
			fmt.Printf("ARGON: %s\n", entries[1].Text)
			for _, c := range entries[1].Citations {
				fmt.Printf("  source: %s %s\n", c.Title, c.URI)
			}
		}
	}
	return true
}
