// ABOUTME: mDNS service discovery for argon relays
// ABOUTME: Relays advertise _argon-relay._tcp, the assistant browses for the first one
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service relays advertise
const ServiceType = "_argon-relay._tcp"

// ErrNotFound is returned when no relay answered before the timeout
var ErrNotFound = errors.New("no relay found")

// Config holds advertisement configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string
	Codec       string
}

// Manager advertises a relay until stopped
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
}

// RelayInfo describes a discovered relay
type RelayInfo struct {
	Name  string
	Host  string
	Port  int
	Path  string
	Codec string
}

// Addr returns host:port
func (r RelayInfo) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Advertise publishes the relay via mDNS
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		txtRecords(m.config),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Stop withdraws the advertisement
func (m *Manager) Stop() {
	m.cancel()
}

// Discover returns the first relay that answers within timeout
func Discover(ctx context.Context, timeout time.Duration) (RelayInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *mdns.ServiceEntry, 10)
	found := make(chan RelayInfo, 1)

	go func() {
		for entry := range entries {
			relay, ok := parseEntry(entry)
			if !ok {
				continue
			}
			select {
			case found <- relay:
			default:
			}
		}
	}()

	go func() {
		defer close(entries)
		params := &mdns.QueryParam{
			Service:     ServiceType,
			Domain:      "local",
			Timeout:     timeout,
			Entries:     entries,
			DisableIPv6: true,
		}
		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query error: %v", err)
		}
	}()

	select {
	case relay := <-found:
		log.Printf("Discovered relay: %s at %s", relay.Name, relay.Addr())
		return relay, nil
	case <-ctx.Done():
		return RelayInfo{}, ErrNotFound
	}
}

// parseEntry converts an mDNS answer into RelayInfo
func parseEntry(entry *mdns.ServiceEntry) (RelayInfo, bool) {
	if entry == nil || entry.AddrV4 == nil || entry.Port == 0 {
		return RelayInfo{}, false
	}
	if !strings.Contains(entry.Name, ServiceType) {
		return RelayInfo{}, false
	}

	relay := RelayInfo{
		Name: strings.TrimSuffix(strings.SplitN(entry.Name, "."+ServiceType, 2)[0], "."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
	}
	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			relay.Path = value
		case "codec":
			relay.Codec = value
		}
	}
	return relay, true
}

func txtRecords(config Config) []string {
	var txt []string
	if config.Path != "" {
		txt = append(txt, "path="+config.Path)
	}
	if config.Codec != "" {
		txt = append(txt, "codec="+config.Codec)
	}
	return txt
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
