package mesh

import (
	"fmt"
	"io"

	"github.com/sitbon/wgmesh/pkg/node"
)

// Info is a point-in-time snapshot of the mesh: fractional reachability
// across all nodes, plus each node's own Info.
type Info struct {
	Name         string               `yaml:"name" json:"name"`
	Network      string               `yaml:"network" json:"network"`
	IsUp         float64              `yaml:"is_up" json:"is_up"`
	ConfigExists float64              `yaml:"config_exists" json:"config_exists"`
	Nodes        map[string]node.Info `yaml:"nodes" json:"nodes"`
}

// Info reports the mesh's current observed state.
func (m *Mesh) Info() Info {
	nodes := make(map[string]node.Info, len(m.nodes))
	var upCount, existsCount float64
	for _, name := range m.order {
		ni := m.nodes[name].Info()
		nodes[name] = ni
		if ni.IsUp {
			upCount++
		}
		if ni.ConfigExists {
			existsCount++
		}
	}

	count := float64(len(m.nodes))
	var isUp, configExists float64
	if count > 0 {
		isUp = upCount / count
		configExists = existsCount / count
	}

	return Info{
		Name:         m.name,
		Network:      m.network.String(),
		IsUp:         isUp,
		ConfigExists: configExists,
		Nodes:        nodes,
	}
}

// Show prints each node's live `wg show` output to w.
func (m *Mesh) Show(w io.Writer) {
	for _, name := range m.order {
		n := m.nodes[name]
		out, err := n.Remote().Show()
		if err != nil {
			fmt.Fprintf(w, "%s\n%v\n\n", n.Name, err)
			continue
		}
		fmt.Fprintf(w, "%s\n%s\n\n", n.Name, out)
	}
}
