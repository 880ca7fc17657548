// ABOUTME: Entry point for the argon relay
// ABOUTME: Streams scripted assistant speech over websocket for offline sessions
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/zimcore/argon/internal/relay"
	"github.com/zimcore/argon/internal/version"
)

var (
	port           = flag.Int("port", 8928, "WebSocket relay port")
	name           = flag.String("name", "", "Relay friendly name (default: hostname-argon-relay)")
	logFile        = flag.String("log-file", "argon-relay.log", "Log file path")
	noMDNS         = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	audioFile      = flag.String("audio", "", "MP3 file to stream. If not specified, streams a synthetic voice")
	codec          = flag.String("codec", "pcm", "Chunk codec: pcm or opus")
	chunkMs        = flag.Int("chunk-ms", 40, "PCM chunk length in milliseconds (opus always uses 20)")
	interruptEvery = flag.Int("interrupt-every", 0, "Interrupt every Nth turn halfway (0 = never)")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(os.Stdout, f))

	relayName := *name
	if relayName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		relayName = fmt.Sprintf("%s-argon-relay", hostname)
	}

	log.Printf("%s relay: %s on port %d", version.String(), relayName, *port)
	log.Printf("Logging to: %s", *logFile)
	log.Printf("Press Ctrl-C to stop")

	config := relay.DefaultConfig()
	config.Port = *port
	config.Name = relayName
	config.EnableMDNS = !*noMDNS
	config.AudioFile = *audioFile
	config.Codec = *codec
	config.ChunkMs = *chunkMs
	config.InterruptEvery = *interruptEvery

	srv, err := relay.New(config)
	if err != nil {
		log.Fatalf("Invalid relay configuration: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Relay error: %v", err)
	}

	log.Printf("Relay stopped")
}
