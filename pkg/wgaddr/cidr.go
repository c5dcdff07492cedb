package wgaddr

import (
	"fmt"
	"math/big"
	"net"
)

// NodeIndex computes a node's position within its mesh network: the
// difference between its address and the network's base address, given
// both share the same prefix length and family.
func NodeIndex(addr, network *net.IPNet) (int, error) {
	addrOnes, addrBits := addr.Mask.Size()
	netOnes, netBits := network.Mask.Size()
	if addrBits != netBits {
		return 0, fmt.Errorf("address %s and network %s are different address families", addr, network)
	}
	if addrOnes != netOnes {
		return 0, fmt.Errorf("address %s prefix length does not match network %s", addr, network)
	}
	if !network.Contains(addr.IP) {
		return 0, fmt.Errorf("address %s is not in network %s", addr, network)
	}

	diff := new(big.Int).Sub(ipToInt(addr.IP), ipToInt(network.IP.Mask(network.Mask)))
	if !diff.IsInt64() {
		return 0, fmt.Errorf("address %s index overflows an int", addr)
	}
	return int(diff.Int64()), nil
}

func ipToInt(ip net.IP) *big.Int {
	if v4 := ip.To4(); v4 != nil {
		return new(big.Int).SetBytes(v4)
	}
	return new(big.Int).SetBytes(ip.To16())
}

// BridgePriority computes the STP priority for a node's bridge: an explicit
// prio overrides the index-derived default, which cycles through [-8, 7] as
// the mesh grows.
func BridgePriority(index int, prio *int) int {
	p := -8 + mod(index-1, 16)
	if prio != nil {
		p = *prio
	}
	return 32768 + 4096*p
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
