package node

// Info is a point-in-time snapshot of a node's observed remote state, for
// the `info` and resource-provider reporting paths.
type Info struct {
	Host         string   `yaml:"host" json:"host"`
	IsUp         bool     `yaml:"is_up" json:"is_up"`
	ConfigExists bool     `yaml:"config_exists" json:"config_exists"`
	Address      string   `yaml:"address" json:"address"`
	Peers        []string `yaml:"peers" json:"peers"`
}

// Info reports the node's current observed state.
func (n *Node) Info() Info {
	return Info{
		Host:         n.SSH.Host,
		IsUp:         n.IsUp(),
		ConfigExists: n.ConfigExists(),
		Address:      n.Addr.IP.String(),
		Peers:        n.Peers(),
	}
}
