package ssh

import (
	"fmt"
	"net"
	"strconv"

	"github.com/eugenetaranov/hatch/internal/config"
)

const defaultPort = 22

// Target is where a session connects to.
type Target struct {
	Host string
	Port int
	User string
}

// ResolveTarget merges host, port and user from cfg and args. Missing values
// become "" and port 22; the transport rejects unusable targets.
func ResolveTarget(args config.Args, cfg *config.Config) Target {
	section := cfg.Section()
	return Target{
		Host: config.Resolve(section.RemoteHost, args.RemoteHost, ""),
		Port: config.Resolve(section.RemotePort, args.RemotePort, defaultPort),
		User: config.Resolve(section.RemoteUser, args.RemoteUser, ""),
	}
}

// Addr returns host:port.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t Target) String() string {
	return fmt.Sprintf("%s@%s", t.User, t.Addr())
}
