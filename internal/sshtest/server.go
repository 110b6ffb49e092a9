// Package sshtest provides an in-process SSH server for tests.
//
// The server accepts "exec" requests only and answers them with a
// caller-supplied Handler. It is not a shell: commands are never run.
package sshtest

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// Handler answers one command. A negative exit code closes the channel
// without reporting an exit status, which clients see as a transport error.
type Handler func(cmd string) (output string, exitCode int)

// Server is a minimal SSH server listening on 127.0.0.1.
type Server struct {
	// Host and Port locate the listener.
	Host string
	Port int

	handler  Handler
	config   *ssh.ServerConfig
	listener net.Listener

	passwords map[string]string
	keys      map[string]ssh.PublicKey

	mu       sync.Mutex
	commands []string
	wg       sync.WaitGroup
}

// Option configures the server.
type Option func(*Server)

// WithPassword accepts password authentication for user.
func WithPassword(user, password string) Option {
	return func(s *Server) {
		s.passwords[user] = password
	}
}

// WithAuthorizedKey accepts public key authentication for user.
func WithAuthorizedKey(user string, key ssh.PublicKey) Option {
	return func(s *Server) {
		s.keys[user] = key
	}
}

// NewServer starts a server and stops it when the test ends.
func NewServer(t testing.TB, handler Handler, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		handler:   handler,
		passwords: make(map[string]string),
		keys:      make(map[string]ssh.PublicKey),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.config = &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if want, ok := s.passwords[conn.User()]; ok && want == string(password) {
				return &ssh.Permissions{}, nil
			}
			return nil, fmt.Errorf("password rejected for %q", conn.User())
		},
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if want, ok := s.keys[conn.User()]; ok && bytes.Equal(want.Marshal(), key.Marshal()) {
				return &ssh.Permissions{}, nil
			}
			return nil, fmt.Errorf("public key rejected for %q", conn.User())
		},
	}

	_, hostKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(hostKey)
	if err != nil {
		t.Fatalf("failed to create host signer: %v", err)
	}
	s.config.AddHostKey(signer)

	s.listener, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	host, port, _ := net.SplitHostPort(s.listener.Addr().String())
	s.Host = host
	s.Port, _ = strconv.Atoi(port)

	s.wg.Add(1)
	go s.serve()

	t.Cleanup(s.Close)
	return s
}

// Close stops accepting connections and waits for the accept loop to exit.
func (s *Server) Close() {
	_ = s.listener.Close()
	s.wg.Wait()
}

// Commands returns every command received so far, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(nConn net.Conn) {
	defer nConn.Close()

	sconn, chans, reqs, err := ssh.NewServerConn(nConn, s.config)
	if err != nil {
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, requests)
	}
}

func (s *Server) handleSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()

	for req := range requests {
		if req.Type != "exec" {
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
			continue
		}

		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		_ = req.Reply(true, nil)

		s.mu.Lock()
		s.commands = append(s.commands, payload.Command)
		s.mu.Unlock()

		output, code := s.handler(payload.Command)
		_, _ = ch.Write([]byte(output))
		if code >= 0 {
			status := struct{ Status uint32 }{uint32(code)}
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&status))
		}
		return
	}
}

// GenerateKey creates an ed25519 client key. It returns the private key in
// OpenSSH PEM form and the matching public key. A non-empty passphrase
// encrypts the private key.
func GenerateKey(t testing.TB, passphrase string) (string, ssh.PublicKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate client key: %v", err)
	}

	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte(passphrase))
	}
	if err != nil {
		t.Fatalf("failed to marshal client key: %v", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("failed to convert public key: %v", err)
	}

	return string(pem.EncodeToMemory(block)), sshPub
}

// Script returns a Handler that answers known commands from a table and
// fails everything else with a bash-style "command not found" message.
func Script(responses map[string]Response) Handler {
	return func(cmd string) (string, int) {
		if r, ok := responses[cmd]; ok {
			return r.Output, r.ExitCode
		}
		return fmt.Sprintf("bash: line 1: %s: command not found\n", cmd), 127
	}
}

// Response is a scripted answer to one command.
type Response struct {
	Output   string
	ExitCode int
}
