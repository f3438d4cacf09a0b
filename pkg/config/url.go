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

package config

import (
	"net/url"
	"strings"

	"github.com/denialofsandwich/b4-backup/pkg/b4err"
)

// ConnectionURL is a parsed connection endpoint: either a local filesystem
// path or an ssh:// remote, per spec §6:
//
//	ssh://[user[:password]@]host[:port]/absolute/path
//
// or a bare filesystem path. Default user is "root", default port is 22.
type ConnectionURL struct {
	Remote   bool
	User     string
	Password string
	Host     string
	Port     string
	Path     string
}

const (
	defaultSSHUser = "root"
	defaultSSHPort = "22"
)

// ParseConnectionURL parses a source or destination URL. A value with no
// scheme and no host is a local path (absolute or relative); "ssh" is the
// only supported remote scheme.
func ParseConnectionURL(raw string) (*ConnectionURL, error) {
	if raw == "" {
		return nil, &b4err.InvalidConnectionURLError{URL: raw, Err: errEmptyURL}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &b4err.InvalidConnectionURLError{URL: raw, Err: err}
	}

	if u.Scheme == "" && u.Host == "" {
		// Bare filesystem path, possibly relative (spec §6: "A URL
		// missing a host and a leading / is interpreted as a relative
		// local path").
		return &ConnectionURL{Remote: false, Path: raw}, nil
	}

	switch u.Scheme {
	case "ssh":
		if u.Host == "" {
			return nil, &b4err.InvalidConnectionURLError{URL: raw, Err: errMissingHost}
		}
		if !strings.HasPrefix(u.Path, "/") {
			return nil, &b4err.InvalidConnectionURLError{URL: raw, Err: errRelativeRemotePath}
		}
		port := u.Port()
		if port == "" {
			port = defaultSSHPort
		}
		user := defaultSSHUser
		password := ""
		if u.User != nil {
			if u.User.Username() != "" {
				user = u.User.Username()
			}
			password, _ = u.User.Password()
		}
		return &ConnectionURL{
			Remote:   true,
			User:     user,
			Password: password,
			Host:     u.Hostname(),
			Port:     port,
			Path:     u.Path,
		}, nil
	default:
		return nil, &b4err.UnknownProtocolError{Scheme: u.Scheme}
	}
}

func (c *ConnectionURL) String() string {
	if !c.Remote {
		return c.Path
	}
	return "ssh://" + c.User + "@" + c.Host + ":" + c.Port + c.Path
}

var (
	errEmptyURL           = simpleErr("connection url must not be empty")
	errMissingHost        = simpleErr("ssh url is missing a host")
	errRelativeRemotePath = simpleErr("ssh url path must be absolute")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
