package sshrun

import (
	"fmt"
	"time"
)

// UDPListen starts a one-shot UDP listener on port, bound for up to
// timeout, as an async command the caller joins after giving the peer time
// to send.
func UDPListen(r Runner, port int, timeout time.Duration) *Handle {
	secs := int(timeout.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	cmd := fmt.Sprintf("timeout %d nc -u -l -W 1 0 %d", secs, port)
	return r.RunAsync(cmd)
}

// UDPSend writes a single probe byte to host:port over /dev/udp, run
// unprivileged since sending requires no special capability.
func UDPSend(r Runner, host string, port int) Result {
	cmd := fmt.Sprintf("echo -n 1 > /dev/udp/%s/%d", host, port)
	return r.Run(cmd, WithRoot(false))
}

// UdpingFrom probes reachability from self to peer: self listens on
// listenPort at its own public endpointHost/endpointPort, waits briefly for
// the listener to bind, then peer sends a datagram to that same
// endpointHost/endpointPort. It reports whether self's listener observed
// the datagram.
func UdpingFrom(self Runner, listenPort int, endpointHost string, endpointPort int, peer Runner) bool {
	handle := UDPListen(self, listenPort, time.Second)
	time.Sleep(100 * time.Millisecond)
	UDPSend(peer, endpointHost, endpointPort)
	return handle.Join().OK
}
