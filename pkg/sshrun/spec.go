package sshrun

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec is a node's SSH connection record: either "user@host:port" (with
// user and port optional) decoded from a plain string in the mesh document,
// or the equivalent {host, user, port} mapping.
type Spec struct {
	Host string `yaml:"host" json:"host"`
	User string `yaml:"user,omitempty" json:"user,omitempty"`
	Port int    `yaml:"port,omitempty" json:"port,omitempty"`
}

// ParseSpecString parses the "[user@]host[:port]" connection string form.
func ParseSpecString(s string) (Spec, error) {
	user := ""
	rest := s
	if i := strings.IndexByte(s, '@'); i >= 0 {
		user, rest = s[:i], s[i+1:]
	}

	host := rest
	port := 0
	if h, p, err := net.SplitHostPort(rest); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Spec{}, fmt.Errorf("ssh %q: invalid port: %w", s, err)
		}
		host, port = h, n
	}
	if host == "" {
		return Spec{}, fmt.Errorf("ssh %q: missing host", s)
	}
	return Spec{Host: host, User: user, Port: port}, nil
}

// UnmarshalYAML accepts either a scalar connection string or a mapping.
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		spec, err := ParseSpecString(value.Value)
		if err != nil {
			return err
		}
		*s = spec
		return nil
	}
	type rawSpec Spec
	var r rawSpec
	if err := value.Decode(&r); err != nil {
		return err
	}
	*s = Spec(r)
	return nil
}

// UnmarshalJSON accepts either a JSON string or a JSON object.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		spec, err := ParseSpecString(str)
		if err != nil {
			return err
		}
		*s = spec
		return nil
	}
	type rawSpec Spec
	var r rawSpec
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*s = Spec(r)
	return nil
}

// Host with defaults resolved: user "root" when unset, port 22 when unset.
func (s Spec) resolved() (user string, addr string) {
	user = s.User
	if user == "" {
		user = "root"
	}
	port := s.Port
	if port == 0 {
		port = 22
	}
	return user, net.JoinHostPort(s.Host, strconv.Itoa(port))
}
