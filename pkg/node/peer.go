package node

import (
	"fmt"
	"os"
	"reflect"

	"github.com/sitbon/wgmesh/pkg/gretap"
	"github.com/sitbon/wgmesh/pkg/sshrun"
	"github.com/sitbon/wgmesh/pkg/wgremote"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// PeerWith establishes or refreshes a WireGuard+GRETAP peering between n and
// other. If the two are already peered, it validates the existing peering
// and reconciles friendly metadata without generating a new preshared key or
// GRETAP fragment. If they are not peered, it gates on reachability in a
// partial mesh, then creates a symmetric peering on both sides: a shared
// preshared key, tunnel-address allowed-ips, and matching GRETAP PostUp/
// PreDown fragments.
func (n *Node) PeerWith(other *Node) error {
	thisKey := n.PublicKey()
	thatKey := other.PublicKey()
	if thisKey == thatKey {
		return fmt.Errorf("node %q: cannot peer with itself", n.Name)
	}

	thisPeer, thisHas := n.config.Peers[thatKey.String()]
	thatPeer, thatHas := other.config.Peers[thisKey.String()]

	if thisHas && thatHas {
		if thisPeer.AllowedIPs[0] != tunnelCIDR(other.TunnelAddr()) || thatPeer.AllowedIPs[0] != tunnelCIDR(n.TunnelAddr()) {
			return fmt.Errorf("node %q <-> %q: existing peering addresses do not match", n.Name, other.Name)
		}
		reconcileJSON(&other.JSON, thisPeer)
		reconcileJSON(&n.JSON, thatPeer)
		thisPeer.FriendlyName = other.Name
		thatPeer.FriendlyName = n.Name
		return nil
	}

	if !n.meshFull {
		ok, err := n.CanPeer(other)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	psk, err := wgtypes.GenerateKey()
	if err != nil {
		return fmt.Errorf("node %q <-> %q: generate preshared key: %w", n.Name, other.Name, err)
	}

	thisPeerNew := n.asPeer(psk)
	thatPeerNew := other.asPeer(psk)

	other.config.AddPeer(thisPeerNew)
	n.config.AddPeer(thatPeerNew)

	thisGretap := fmt.Sprintf("gt-%s%d", n.meshName, other.index)
	thatGretap := fmt.Sprintf("gt-%s%d", other.meshName, n.index)
	thisBridge := fmt.Sprintf("br-%s", n.meshName)
	thatBridge := fmt.Sprintf("br-%s", other.meshName)

	thisUp, err := gretap.Up(thisGretap, thisBridge, n.BridgePriority(), n.TunnelAddr(), other.TunnelAddr(), n.Addr)
	if err != nil {
		return fmt.Errorf("node %q <-> %q: %w", n.Name, other.Name, err)
	}
	thatUp, err := gretap.Up(thatGretap, thatBridge, other.BridgePriority(), other.TunnelAddr(), n.TunnelAddr(), other.Addr)
	if err != nil {
		return fmt.Errorf("node %q <-> %q: %w", n.Name, other.Name, err)
	}
	thisDown, err := gretap.Down(thisGretap, thisBridge)
	if err != nil {
		return fmt.Errorf("node %q <-> %q: %w", n.Name, other.Name, err)
	}
	thatDown, err := gretap.Down(thatGretap, thatBridge)
	if err != nil {
		return fmt.Errorf("node %q <-> %q: %w", n.Name, other.Name, err)
	}

	n.config.PostUp = append(n.config.PostUp, thisUp...)
	other.config.PostUp = append(other.config.PostUp, thatUp...)
	n.config.PreDown = append(n.config.PreDown, thisDown...)
	other.config.PreDown = append(other.config.PreDown, thatDown...)

	return nil
}

func (n *Node) asPeer(psk wgtypes.Key) *wgremote.Peer {
	return &wgremote.Peer{
		PublicKey:           n.PublicKey(),
		PresharedKey:        psk,
		AllowedIPs:          []string{tunnelCIDR(n.TunnelAddr())},
		Endpoint:            fmt.Sprintf("%s:%d", n.Endpoint.Host, n.endpointPort()),
		PersistentKeepalive: 25,
		FriendlyName:        n.Name,
		FriendlyJSON:        n.JSON,
	}
}

// CanPeer probes UDP reachability in each direction whose listening node's
// WireGuard interface is down, returning true if either probe succeeds. A
// node whose interface is already up is not probed as a listener, so when
// both interfaces are up no probe runs and CanPeer reports false. Used to
// gate peering in a partial mesh, where not every pair is expected to be
// directly reachable.
func (n *Node) CanPeer(other *Node) (bool, error) {
	listenPort := n.ListenPort
	if listenPort == 0 {
		listenPort = n.config.ListenPort
	}
	otherListenPort := other.ListenPort
	if otherListenPort == 0 {
		otherListenPort = other.config.ListenPort
	}

	if !n.remote.IsUp() {
		if sshrun.UdpingFrom(n.client, listenPort, n.Endpoint.Host, n.endpointPort(), other.client) {
			return true, nil
		}
	}
	if !other.remote.IsUp() {
		if sshrun.UdpingFrom(other.client, otherListenPort, other.Endpoint.Host, other.endpointPort(), n.client) {
			return true, nil
		}
	}

	fmt.Fprintf(os.Stderr, "[%s] [peer_with] !! %s unreachable, skipping\n", n.Name, other.Name)
	return false, nil
}

// reconcileJSON adopts the peer's friendly JSON into nodeJSON when nodeJSON
// is empty, or overwrites the peer's when nodeJSON has since diverged.
// A non-empty nodeJSON always wins on refresh, so an operator-edited value
// isn't silently clobbered by a stale peer record.
func reconcileJSON(nodeJSON *map[string]any, peer *wgremote.Peer) {
	if len(*nodeJSON) == 0 && peer.FriendlyJSON != nil {
		*nodeJSON = peer.FriendlyJSON
		return
	}
	if len(*nodeJSON) != 0 && !reflect.DeepEqual(peer.FriendlyJSON, *nodeJSON) {
		peer.FriendlyJSON = *nodeJSON
	}
}
