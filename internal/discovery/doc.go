// Package discovery advertises and finds escconf edit servers with mDNS.
//
// A running "escconf serve" registers the "_escconf._tcp" service type and
// publishes TXT records describing what it edits:
//
//	escconf=1      marker, entries without it are ignored
//	layout=AM32    settings layout name
//	escs=4         number of ESCs in the file
//	version=v1.0.0 escconf version
//
// # Usage Example
//
//	ad, err := discovery.Advertise("bench", 8484,
//	    discovery.BuildTXT("AM32", 4, version.Version))
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
//
//	instances, err := discovery.NewScanner().Scan(ctx)
//	for _, inst := range instances {
//	    fmt.Println(inst)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Servers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
