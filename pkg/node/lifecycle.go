package node

import (
	"fmt"
	"os"
)

// Up brings the node's WireGuard interface up, writing its config first
// when write calls for it. write=Auto writes when no config exists yet or
// when the computed config differs from what's already on the remote host;
// write=Force always writes; write=Skip never does.
//
// If the interface is already up and no write happened, Up is a no-op
// success. If a write did happen while the interface was already up, the
// interface is brought down and back up so the running state matches the
// new config.
func (n *Node) Up(write TriState) bool {
	didWrite := write == Force

	if write == Auto {
		switch remoteCfg, err := n.remote.Config(); {
		case err != nil:
			didWrite = true
		case remoteCfg == nil:
			didWrite = true
		case !remoteCfg.Equal(n.config):
			didWrite = true
		}
	}

	if didWrite {
		if err := n.ConfigWrite(); err != nil {
			fmt.Fprintf(os.Stderr, "[%s] [up] !! config_write failed: %v\n", n.Name, err)
			return false
		}
	}

	if n.remote.IsUp() {
		if !didWrite {
			return true
		}
		n.remote.Down()
	}

	out, err := n.remote.Up()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] [up] !! %s: %v\n", n.Name, n.remote.Interface, err)
		if didWrite {
			n.ConfigRemove()
		}
		return false
	}

	fmt.Fprintf(os.Stderr, "[%s] [up] ++ %s: %s\n", n.Name, n.remote.Interface, out)
	return true
}

// Down brings the node's WireGuard interface down. remove=Auto removes the
// config file only if one exists; remove=Force always removes it (if the
// interface did come down); remove=Skip never removes it.
func (n *Node) Down(remove TriState) bool {
	if n.remote.IsUp() {
		out, err := n.remote.Down()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%s] [down] !! %s: %v\n", n.Name, n.remote.Interface, err)
			if !n.remote.IsUp() && remove == Force {
				n.ConfigRemove()
			}
			return false
		}
		fmt.Fprintf(os.Stderr, "[%s] [down] -- %s: %s\n", n.Name, n.remote.Interface, out)
	}

	if remove == Force || (remove == Auto && n.remote.ConfigExists()) {
		n.ConfigRemove()
	}
	return true
}

// Sync reconciles the remote config with the node's computed one when they
// differ, reporting whether a change was made. up controls how: Force
// always reapplies via Up, Auto reapplies via Up only if the interface is
// already running, Skip just rewrites the config file in place and leaves
// the interface alone.
func (n *Node) Sync(up TriState) bool {
	remoteCfg, err := n.remote.Config()
	if err != nil || remoteCfg == nil || !remoteCfg.Equal(n.config) {
		if up == Force || (up == Auto && n.remote.IsUp()) {
			return n.Up(Force)
		}
		if writeErr := n.ConfigWrite(); writeErr != nil {
			fmt.Fprintf(os.Stderr, "[%s] [sync] !! config_write failed: %v\n", n.Name, writeErr)
			return false
		}
		return true
	}
	return false
}
