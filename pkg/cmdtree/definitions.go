package cmdtree

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is one command definition. It is the payload attached to the
// command's End node in the graph.
type Definition struct {
	Name      string `yaml:"name" json:"name"`
	Format    string `yaml:"format" json:"format"`
	Help      string `yaml:"help,omitempty" json:"help,omitempty"`
	Privilege int    `yaml:"privilege,omitempty" json:"privilege,omitempty"`
}

func (d *Definition) String() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Format
}

// File is the on-disk layout of a definitions file.
type File struct {
	Commands []Definition `yaml:"commands"`
}

// Load reads and validates a YAML definitions file.
func Load(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse definitions %s: %w", path, err)
	}
	return defs, nil
}

// Parse decodes YAML definitions. Every entry needs a format; names, when
// given, must be unique. Unnamed entries are named after their format.
func Parse(data []byte) ([]*Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	defs := make([]*Definition, 0, len(f.Commands))
	names := make(map[string]int, len(f.Commands))
	for i := range f.Commands {
		d := f.Commands[i]
		d.Format = strings.TrimSpace(d.Format)
		if d.Format == "" {
			return nil, fmt.Errorf("command %d: empty format", i+1)
		}
		if d.Name == "" {
			d.Name = d.Format
		}
		if prev, ok := names[d.Name]; ok {
			return nil, fmt.Errorf("command %d: name %q already used by command %d", i+1, d.Name, prev)
		}
		if d.Privilege < 0 || d.Privilege > 15 {
			return nil, fmt.Errorf("command %d: privilege %d out of range 0-15", i+1, d.Privilege)
		}
		names[d.Name] = i + 1
		defs = append(defs, &d)
	}
	return defs, nil
}

// Builtin returns the built-in vtysh-style definitions.
func Builtin() []*Definition {
	defs := make([]*Definition, len(builtin))
	for i := range builtin {
		d := builtin[i]
		defs[i] = &d
	}
	return defs
}

var builtin = []Definition{
	{Name: "configure-terminal", Format: "configure terminal", Help: "Enter configuration mode", Privilege: 15},
	{Name: "exit", Format: "exit", Help: "Exit current mode"},
	{Name: "show-version", Format: "show version", Help: "Show software version"},
	{Name: "show-running-config", Format: "show running-config", Help: "Show active configuration", Privilege: 15},
	{Name: "show-interface", Format: "show interface [IFNAME]", Help: "Show interface status"},
	{Name: "show-ip-route", Format: "show <ip|ipv6> route [A.B.C.D|A.B.C.D/M|X:X::X:X|X:X::X:X/M]", Help: "Show routing table"},
	{Name: "show-ip-route-protocol", Format: "show <ip|ipv6> route <bgp|ospf|connected|static|kernel>", Help: "Show routes by protocol"},
	{Name: "show-ip-bgp", Format: "show ip bgp [summary|neighbors]", Help: "Show BGP information"},
	{Name: "show-ip-bgp-neighbor", Format: "show ip bgp neighbors A.B.C.D [routes|advertised-routes]", Help: "Show a BGP neighbor"},
	{Name: "show-ip-ospf", Format: "show ip ospf [interface|neighbor|database]", Help: "Show OSPF information"},
	{Name: "show-logging", Format: "show logging [last (1-1000)]", Help: "Show daemon log entries"},
	{Name: "ip-route", Format: "ip route A.B.C.D/M <A.B.C.D|IFNAME|null0> [distance(1-255)]", Help: "Configure a static IPv4 route", Privilege: 15},
	{Name: "ipv6-route", Format: "ipv6 route X:X::X:X/M <X:X::X:X|IFNAME|null0> [distance(1-255)]", Help: "Configure a static IPv6 route", Privilege: 15},
	{Name: "router-bgp", Format: "router bgp asn(1-4294967295)", Help: "Enable a BGP process", Privilege: 15},
	{Name: "neighbor-remote-as", Format: "neighbor <A.B.C.D|X:X::X:X> remote-as asn(1-4294967295)", Help: "Specify a BGP neighbor", Privilege: 15},
	{Name: "interface", Format: "interface IFNAME", Help: "Select an interface to configure", Privilege: 15},
	{Name: "ip-address", Format: "ip address A.B.C.D/M [secondary]", Help: "Set the IPv4 address of an interface", Privilege: 15},
	{Name: "vlan", Format: "vlan vid(1-4094) [name WORD]", Help: "Configure a VLAN", Privilege: 15},
	{Name: "ping", Format: "ping <A.B.C.D|X:X::X:X|WORD> [count(1-65535)]", Help: "Send echo requests"},
	{Name: "traceroute", Format: "traceroute <A.B.C.D|X:X::X:X|WORD>", Help: "Trace the route to a host"},
	{Name: "clear-ip-bgp", Format: "clear ip bgp <*|A.B.C.D> [soft|soft in|soft out]", Help: "Reset BGP sessions", Privilege: 15},
	{Name: "debug", Format: "debug <bgp [updates|events]|ospf [packet|lsa]|zebra>", Help: "Enable debugging", Privilege: 15},
	{Name: "write-memory", Format: "write memory", Help: "Save the configuration", Privilege: 15},
}
