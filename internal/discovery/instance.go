package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Instance represents an escconf edit server discovered on the network
type Instance struct {
	// Name is the advertised mDNS instance name
	Name string

	// Host is the advertised hostname (e.g., "bench.local.")
	Host string

	// IP is the address the server was reached at (IPv4 preferred)
	IP string

	// Port is the HTTP port of the edit server
	Port int

	// Metadata holds the TXT record key/value pairs
	Metadata map[string]string

	// DiscoveredAt is when the instance answered
	DiscoveredAt time.Time
}

// String returns a one-line description of the instance
func (i *Instance) String() string {
	layout := i.GetMetadata(TXTLayout)
	if layout == "" {
		layout = "unknown layout"
	}
	return fmt.Sprintf("%s at %s (%s, %s ESCs)", i.Name, i.Address(), layout, i.escCount())
}

// Address returns the host:port the server listens on
func (i *Instance) Address() string {
	return net.JoinHostPort(i.IP, strconv.Itoa(i.Port))
}

// BaseURL returns the HTTP base URL of the edit server
func (i *Instance) BaseURL() string {
	return "http://" + i.Address()
}

// GetMetadata returns a TXT value, or "" when absent
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}

func (i *Instance) escCount() string {
	if n := i.GetMetadata(TXTESCs); n != "" {
		return n
	}
	return "?"
}
