package discovery

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/escconf/internal/logging"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type escconf edit servers advertise
	ServiceType = "_escconf._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for server discovery
	DefaultScanTimeout = 5 * time.Second
)

// TXT record keys. Every escconf advertisement carries TXTMarker=1.
const (
	TXTMarker  = "escconf"
	TXTLayout  = "layout"
	TXTESCs    = "escs"
	TXTVersion = "version"
)

// Advertisement is a registered mDNS service. Shutdown withdraws it.
type Advertisement struct {
	server *zeroconf.Server
}

// Shutdown withdraws the advertisement from the network
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

// BuildTXT returns the TXT records for a server editing count ESCs with layout
func BuildTXT(layout string, count int, version string) []string {
	return []string{
		TXTMarker + "=1",
		TXTLayout + "=" + layout,
		TXTESCs + "=" + strconv.Itoa(count),
		TXTVersion + "=" + version,
	}
}

// Advertise registers an edit server on port under the given instance name.
// The marker record is added when txt does not already carry it.
func Advertise(instance string, port int, txt []string) (*Advertisement, error) {
	if !hasMarker(parseTXT(txt)) {
		txt = append([]string{TXTMarker + "=1"}, txt...)
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising edit server",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertisement{server: server}, nil
}

// Scanner handles mDNS edit server discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for edit servers until the timeout expires or ctx is done.
// Instances are returned sorted by name; repeated answers are collapsed.
func (s *Scanner) Scan(ctx context.Context) ([]*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(map[string]*Instance)
	done := make(chan struct{})

	// The resolver closes entries once ctx expires.
	go func() {
		defer close(done)
		for entry := range entries {
			if inst := parseServiceEntry(entry); inst != nil {
				found[inst.Name] = inst
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	instances := make([]*Instance, 0, len(found))
	for _, inst := range found {
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Name < instances[j].Name
	})

	logging.Debug("mDNS scan finished", zap.Int("instances", len(instances)))
	return instances, nil
}

// parseServiceEntry converts a zeroconf entry to an Instance.
// Returns nil for entries that are not escconf servers or carry no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Instance {
	if entry == nil {
		return nil
	}

	metadata := parseTXT(entry.Text)
	if !hasMarker(metadata) {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port == 0 {
		return nil
	}

	name := entry.Instance
	if name == "" {
		name = strings.TrimSuffix(entry.HostName, ".")
	}

	return &Instance{
		Name:         name,
		Host:         entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" records. A key without "=" maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	return metadata
}

func hasMarker(metadata map[string]string) bool {
	_, ok := metadata[TXTMarker]
	return ok
}
