package mesh

import (
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/sitbon/wgmesh/pkg/node"
	"github.com/sitbon/wgmesh/pkg/sshrun"
	"github.com/sitbon/wgmesh/pkg/wgremote"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// callLog records tagged events in call order across multiple fakeRunners,
// for asserting the reverse-order rollback property of Mesh.Up.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, s)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// fakeRunner is a minimal sshrun.Runner standing in for a real SSH
// connection, so mesh-level orchestration can be driven deterministically.
type fakeRunner struct {
	tag string
	log *callLog

	mu       sync.Mutex
	commands []string
	up       bool

	upFails bool
}

func newFakeRunner(tag string, log *callLog, upFails bool) *fakeRunner {
	return &fakeRunner{tag: tag, log: log, upFails: upFails}
}

func (f *fakeRunner) Host() string { return f.tag }
func (f *fakeRunner) IsRoot() bool { return true }

func (f *fakeRunner) Run(cmd string, opts ...sshrun.Option) sshrun.Result {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()

	switch {
	case strings.Contains(cmd, "cat >"):
		return sshrun.Result{OK: true} // config write always succeeds
	case strings.Contains(cmd, "cat "):
		return sshrun.Result{OK: false} // no remote config yet: force peering/write
	case strings.Contains(cmd, "wg show"):
		f.mu.Lock()
		up := f.up
		f.mu.Unlock()
		return sshrun.Result{OK: up}
	case strings.Contains(cmd, "wg-quick up"):
		if f.upFails {
			return sshrun.Result{OK: false, Stderr: f.tag + ": up failed"}
		}
		f.mu.Lock()
		f.up = true
		f.mu.Unlock()
		if f.log != nil {
			f.log.add(f.tag + ":up")
		}
		return sshrun.Result{OK: true}
	case strings.Contains(cmd, "wg-quick down"):
		f.mu.Lock()
		f.up = false
		f.mu.Unlock()
		if f.log != nil {
			f.log.add(f.tag + ":down")
		}
		return sshrun.Result{OK: true}
	default:
		return sshrun.Result{OK: true}
	}
}

func (f *fakeRunner) RunAsync(cmd string, opts ...sshrun.Option) *sshrun.Handle {
	return sshrun.NewHandle(f.Run(cmd, opts...))
}

func buildNode(t *testing.T, name string, index int, log *callLog, upFails bool) *node.Node {
	t.Helper()
	priv, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	cfg := wgremote.NewConfig(priv, net.ParseIP("fd00::1"), 51820)
	r := newFakeRunner(name, log, upFails)
	return node.NewForTest(name, index, "office", true, r, cfg)
}

func TestMeshUpRollsBackAlreadyUpNodesInReverseOrder(t *testing.T) {
	log := &callLog{}
	a := buildNode(t, "a", 1, log, false)
	b := buildNode(t, "b", 2, log, false)
	c := buildNode(t, "c", 3, log, true) // c fails to come up

	m := &Mesh{
		name:  "office",
		full:  true,
		nodes: map[string]*node.Node{"a": a, "b": b, "c": c},
		order: []string{"a", "b", "c"},
	}

	up := m.Up(node.Skip)
	if up == nil || *up {
		t.Fatalf("Up() = %v, want pointer to false", up)
	}

	got := log.snapshot()
	want := []string{"a:up", "b:up", "b:down", "a:down"}
	if len(got) != len(want) {
		t.Fatalf("call order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call order = %v, want %v", got, want)
		}
	}
}

func TestMeshDownIsBestEffortAcrossAllNodes(t *testing.T) {
	log := &callLog{}
	a := buildNode(t, "a", 1, log, false)
	b := buildNode(t, "b", 2, log, false)

	m := &Mesh{
		name:  "office",
		full:  true,
		nodes: map[string]*node.Node{"a": a, "b": b},
		order: []string{"a", "b"},
	}

	// Bring both up first so Down has something to tear down.
	m.Up(node.Skip)
	log.entries = nil

	if !m.Down(node.Skip) {
		t.Fatalf("Down() = false, want true")
	}

	got := log.snapshot()
	if len(got) != 2 || got[0] != "a:down" || got[1] != "b:down" {
		t.Fatalf("call order = %v, want [a:down b:down]", got)
	}
}

func TestMeshSyncReportsChangeOnlyWhenEveryNodeChanged(t *testing.T) {
	log := &callLog{}
	a := buildNode(t, "a", 1, log, false)
	b := buildNode(t, "b", 2, log, false)

	m := &Mesh{
		name:  "office",
		full:  true,
		nodes: map[string]*node.Node{"a": a, "b": b},
		order: []string{"a", "b"},
	}

	if !m.Sync(node.Auto) {
		t.Fatalf("Sync() = false, want true when every node's remote config is absent and gets written")
	}
}
