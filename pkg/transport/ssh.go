/*
This file is part of b4backup.

B4backup is free software: you can redistribute it and/or modify it under the terms of the
GNU Lesser General Public License as published by the Free Software Foundation, either
version 3 of the License, or (at your option) any later version.

B4backup is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
See the GNU Lesser General Public License for more details.

You should have received a copy of the GNU Lesser General Public License along with b4backup.
If not, see <https://www.gnu.org/licenses/>.
*/

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"strings"
	"sync/atomic"

	"golang.org/x/crypto/ssh"
)

// SSHConfig carries the pieces needed to dial a remote host, parsed from
// a ssh:// connection URL (spec §6) plus the target's SSH credentials.
type SSHConfig struct {
	Host       string
	Port       string // defaults to "22"
	User       string // defaults to the current OS user, or "root" if that cannot be determined
	Password   string
	KeyFile    string
	HostKeyPEM string // when empty, the host key is not verified
}

func (c SSHConfig) addr() string {
	port := c.Port
	if port == "" {
		port = "22"
	}
	return net.JoinHostPort(c.Host, port)
}

func (c SSHConfig) clientConfig() (*ssh.ClientConfig, error) {
	usr := c.User
	if usr == "" {
		if cur, err := user.Current(); err == nil {
			usr = cur.Username
		} else {
			usr = "root"
		}
	}
	cfg := &ssh.ClientConfig{User: usr}
	if c.Password != "" {
		cfg.Auth = append(cfg.Auth, ssh.Password(c.Password))
	}
	if c.KeyFile != "" {
		data, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ssh key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ssh key file: %w", err)
		}
		cfg.Auth = append(cfg.Auth, ssh.PublicKeys(signer))
	}
	if c.HostKeyPEM != "" {
		key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(c.HostKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ssh host key: %w", err)
		}
		cfg.HostKeyCallback = ssh.FixedHostKey(key)
	} else {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return cfg, nil
}

// SSH runs commands on a remote host over a dialed golang.org/x/crypto/ssh
// connection, one session per command (spec §6 exec_prefix contract).
type SSH struct {
	cfg      SSHConfig
	client   *ssh.Client
	keepHold int32
}

// DialSSH opens a new SSH transport to the given config's host.
func DialSSH(ctx context.Context, cfg SSHConfig) (*SSH, error) {
	clientCfg, err := cfg.clientConfig()
	if err != nil {
		return nil, err
	}
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.addr())
	if err != nil {
		return nil, fmt.Errorf("failed to dial ssh server: %w", err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, cfg.addr(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to establish ssh connection: %w", err)
	}
	return &SSH{cfg: cfg, client: ssh.NewClient(c, chans, reqs)}, nil
}

// Endpoint identifies the physical connection this transport targets, for
// keep-open pooling keyed by (host, port, user) (spec §5).
func (s *SSH) Endpoint() string {
	return s.cfg.addr() + "@" + s.cfg.User
}

func (s *SSH) Run(ctx context.Context, argv []string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", err
	}
	defer sess.Close()
	cmd := shellJoin(argv)
	out, err := sess.CombinedOutput(cmd)
	if err != nil {
		return string(out), &FailedProcessError{Argv: argv, Stdout: string(out), Err: err}
	}
	return string(out), nil
}

func (s *SSH) Pipe(ctx context.Context, argv []string, r io.Reader) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", err
	}
	defer sess.Close()
	sess.Stdin = r
	var out bytes.Buffer
	sess.Stdout = &out
	sess.Stderr = &out
	cmd := shellJoin(argv)
	if err := sess.Run(cmd); err != nil {
		return out.String(), &FailedProcessError{Argv: argv, Stdout: out.String(), Err: err}
	}
	return out.String(), nil
}

func (s *SSH) StartSend(ctx context.Context, argv []string) (io.WriteCloser, func() error, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, nil, err
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	var stderr bytes.Buffer
	sess.Stderr = &stderr
	cmd := shellJoin(argv)
	if err := sess.Start(cmd); err != nil {
		sess.Close()
		return nil, nil, &FailedProcessError{Argv: argv, Err: err}
	}
	finish := func() error {
		defer sess.Close()
		if err := sess.Wait(); err != nil {
			return &FailedProcessError{Argv: argv, Stderr: stderr.String(), Err: err}
		}
		return nil
	}
	return stdin, finish, nil
}

func (s *SSH) StartReceive(ctx context.Context, argv []string) (io.ReadCloser, func() error, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, nil, err
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	var stderr bytes.Buffer
	sess.Stderr = &stderr
	cmd := shellJoin(argv)
	if err := sess.Start(cmd); err != nil {
		sess.Close()
		return nil, nil, &FailedProcessError{Argv: argv, Err: err}
	}
	finish := func() error {
		defer sess.Close()
		if err := sess.Wait(); err != nil {
			return &FailedProcessError{Argv: argv, Stderr: stderr.String(), Err: err}
		}
		return nil
	}
	return io.NopCloser(stdout), finish, nil
}

// ExecPrefix returns the ssh prefix used to compose piped commands, per
// spec §6 ("ssh -p <port> <user>@<host> ").
func (s *SSH) ExecPrefix() string {
	port := s.cfg.Port
	if port == "" {
		port = "22"
	}
	return fmt.Sprintf("ssh -p %s %s@%s ", port, s.cfg.User, s.cfg.Host)
}

func (s *SSH) KeepOpen() { atomic.AddInt32(&s.keepHold, 1) }
func (s *SSH) Release()  { atomic.AddInt32(&s.keepHold, -1) }

func (s *SSH) Close() error {
	if atomic.LoadInt32(&s.keepHold) > 0 {
		return nil
	}
	return s.client.Close()
}

// ForceClose tears down the connection regardless of outstanding
// keep-open holds. Used by the pool when shutting down at the end of a
// batch.
func (s *SSH) ForceClose() error {
	return s.client.Close()
}

// shellJoin composes an argv slice into a single shell command string the
// way the teacher's ssh session helpers do (sshutil.go, ssh_subvolume.go):
// each argument individually single-quoted.
func shellJoin(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = shellQuote(a)
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
