// Package wgremote models the WireGuard side of a remote node: its
// wg-quick config (read, written, diffed) and the wg-quick/wg lifecycle
// commands, both driven over an sshrun.Runner. It knows nothing about
// peering or GRETAP; pkg/node composes those on top.
package wgremote

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// Peer is one [Peer] section of a node's WireGuard config. FriendlyName and
// FriendlyJSON are not standard wg-quick fields; they are round-tripped as
// "# Name:"/"# JSON:" comments immediately preceding the PublicKey line so a
// peer's human-facing identity survives a read-back from the remote host.
type Peer struct {
	PublicKey           wgtypes.Key
	PresharedKey        wgtypes.Key
	AllowedIPs          []string
	Endpoint            string
	PersistentKeepalive int
	FriendlyName        string
	FriendlyJSON        map[string]any
}

// Config is a node's full wg-quick configuration.
type Config struct {
	PrivateKey wgtypes.Key
	Address    net.IP
	ListenPort int
	PostUp     []string
	PreDown    []string

	Peers     map[string]*Peer // keyed by PublicKey.String()
	PeerOrder []string
}

// NewConfig builds an empty config around a freshly generated identity.
func NewConfig(privateKey wgtypes.Key, address net.IP, listenPort int) *Config {
	return &Config{
		PrivateKey: privateKey,
		Address:    address,
		ListenPort: listenPort,
		Peers:      map[string]*Peer{},
	}
}

// AddPeer inserts or replaces a peer, preserving first-insertion order.
func (c *Config) AddPeer(p *Peer) {
	key := p.PublicKey.String()
	if _, exists := c.Peers[key]; !exists {
		c.PeerOrder = append(c.PeerOrder, key)
	}
	c.Peers[key] = p
}

// Equal compares two configs by their canonical rendering, so that field
// order and in-memory representation never cause a spurious mismatch.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Render() == other.Render()
}

// Render serializes the config as wg-quick text.
func (c *Config) Render() string {
	var b strings.Builder

	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "PrivateKey = %s\n", c.PrivateKey.String())
	fmt.Fprintf(&b, "Address = %s/128\n", c.Address.String())
	fmt.Fprintf(&b, "ListenPort = %d\n", c.ListenPort)
	for _, line := range c.PostUp {
		fmt.Fprintf(&b, "PostUp = %s\n", line)
	}
	for _, line := range c.PreDown {
		fmt.Fprintf(&b, "PreDown = %s\n", line)
	}

	for _, key := range c.PeerOrder {
		p := c.Peers[key]
		b.WriteString("\n[Peer]\n")
		if p.FriendlyName != "" {
			fmt.Fprintf(&b, "# Name: %s\n", p.FriendlyName)
		}
		if len(p.FriendlyJSON) > 0 {
			if encoded, err := json.Marshal(p.FriendlyJSON); err == nil {
				fmt.Fprintf(&b, "# JSON: %s\n", encoded)
			}
		}
		fmt.Fprintf(&b, "PublicKey = %s\n", key)
		if p.PresharedKey != (wgtypes.Key{}) {
			fmt.Fprintf(&b, "PresharedKey = %s\n", p.PresharedKey.String())
		}
		fmt.Fprintf(&b, "AllowedIPs = %s\n", strings.Join(p.AllowedIPs, ", "))
		if p.Endpoint != "" {
			fmt.Fprintf(&b, "Endpoint = %s\n", p.Endpoint)
		}
		if p.PersistentKeepalive > 0 {
			fmt.Fprintf(&b, "PersistentKeepalive = %d\n", p.PersistentKeepalive)
		}
	}

	return b.String()
}

// ParseConfig reads wg-quick text back into a Config, the inverse of
// Render.
func ParseConfig(text string) (*Config, error) {
	cfg := &Config{Peers: map[string]*Peer{}}

	var section string
	var cur *Peer

	finalize := func() {
		if cur == nil || cur.PublicKey == (wgtypes.Key{}) {
			return
		}
		key := cur.PublicKey.String()
		if _, exists := cfg.Peers[key]; !exists {
			cfg.PeerOrder = append(cfg.PeerOrder, key)
		}
		cfg.Peers[key] = cur
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if section == "peer" {
				finalize()
			}
			section = strings.ToLower(strings.Trim(line, "[]"))
			if section == "peer" {
				cur = &Peer{}
			}
			continue
		}

		if strings.HasPrefix(line, "#") {
			body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
			if section == "peer" && cur != nil {
				switch {
				case strings.HasPrefix(body, "Name:"):
					cur.FriendlyName = strings.TrimSpace(strings.TrimPrefix(body, "Name:"))
				case strings.HasPrefix(body, "JSON:"):
					var m map[string]any
					raw := strings.TrimSpace(strings.TrimPrefix(body, "JSON:"))
					if err := json.Unmarshal([]byte(raw), &m); err == nil {
						cur.FriendlyJSON = m
					}
				}
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch section {
		case "interface":
			if err := parseInterfaceField(cfg, key, value); err != nil {
				return nil, err
			}
		case "peer":
			if cur == nil {
				continue
			}
			if err := parsePeerField(cur, key, value); err != nil {
				return nil, err
			}
		}
	}
	if section == "peer" {
		finalize()
	}

	return cfg, nil
}

func parseInterfaceField(cfg *Config, key, value string) error {
	switch key {
	case "PrivateKey":
		k, err := wgtypes.ParseKey(value)
		if err != nil {
			return fmt.Errorf("parse PrivateKey: %w", err)
		}
		cfg.PrivateKey = k
	case "Address":
		ip := value
		if i := strings.IndexByte(ip, '/'); i >= 0 {
			ip = ip[:i]
		}
		addr := net.ParseIP(ip)
		if addr == nil {
			return fmt.Errorf("parse Address %q", value)
		}
		cfg.Address = addr
	case "ListenPort":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse ListenPort %q: %w", value, err)
		}
		cfg.ListenPort = n
	case "PostUp":
		cfg.PostUp = append(cfg.PostUp, value)
	case "PreDown":
		cfg.PreDown = append(cfg.PreDown, value)
	}
	return nil
}

func parsePeerField(p *Peer, key, value string) error {
	switch key {
	case "PublicKey":
		k, err := wgtypes.ParseKey(value)
		if err != nil {
			return fmt.Errorf("parse PublicKey: %w", err)
		}
		p.PublicKey = k
	case "PresharedKey":
		k, err := wgtypes.ParseKey(value)
		if err != nil {
			return fmt.Errorf("parse PresharedKey: %w", err)
		}
		p.PresharedKey = k
	case "AllowedIPs":
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		p.AllowedIPs = parts
	case "Endpoint":
		p.Endpoint = value
	case "PersistentKeepalive":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse PersistentKeepalive %q: %w", value, err)
		}
		p.PersistentKeepalive = n
	}
	return nil
}
