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

package cmd

import (
	"context"
	"os"

	"github.com/denialofsandwich/b4-backup/pkg/clock"
	"github.com/denialofsandwich/b4-backup/pkg/config"
	"github.com/denialofsandwich/b4-backup/pkg/targethost"
	"github.com/denialofsandwich/b4-backup/pkg/transport"
)

// pool is shared across every target a single CLI invocation touches, so
// sibling targets on the same remote host reuse one SSH connection (spec
// §5's keep-open pooling).
var pool = transport.NewPool()

// openTransport resolves conn into a Transport: Local for a bare path,
// or a pooled SSH connection for ssh://, using keyFile/hostKeyFile (file
// paths; the host key is read here, the private key when dialing) for
// credentials beyond the URL's inline password.
func openTransport(ctx context.Context, conn *config.ConnectionURL, keyFile, hostKeyFile string) (transport.Transport, error) {
	if !conn.Remote {
		return transport.NewLocal(), nil
	}
	hostKeyPEM := ""
	if hostKeyFile != "" {
		data, err := os.ReadFile(hostKeyFile)
		if err != nil {
			return nil, err
		}
		hostKeyPEM = string(data)
	}
	return pool.GetSSH(ctx, transport.SSHConfig{
		Host:       conn.Host,
		Port:       conn.Port,
		User:       conn.User,
		Password:   conn.Password,
		KeyFile:    keyFile,
		HostKeyPEM: hostKeyPEM,
	})
}

// openTargetHosts resolves target's source (required) and destination
// (optional per OnMissingDestination) into TargetHost pairs, wiring a
// TransportBackend for each side.
func openTargetHosts(ctx context.Context, target config.Target, c clock.Clock) (src, dst *targethost.TargetHost, err error) {
	srcURL, err := config.ParseConnectionURL(target.SourceURL)
	if err != nil {
		return nil, nil, err
	}
	srcTransport, err := openTransport(ctx, srcURL, target.SourceSSHKeyFile, target.SourceSSHHostKeyFile)
	if err != nil {
		return nil, nil, err
	}
	src = targethost.New(target.Name, srcURL.Path, targethost.NewTransportBackend(srcTransport), c)

	if !target.HasDestination() {
		return src, nil, nil
	}
	dstURL, err := config.ParseConnectionURL(target.DestinationURL)
	if err != nil {
		return nil, nil, err
	}
	dstTransport, err := openTransport(ctx, dstURL, target.DestinationSSHKeyFile, target.DestinationSSHHostKeyFile)
	if err != nil {
		return nil, nil, err
	}
	dst, err = targethost.OpenDestination(ctx, target.Name, dstURL.Path, targethost.NewTransportBackend(dstTransport), target.OnMissingDestination, c)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// systemClock builds the real clock, honoring the root
// config's timezone (spec §1: "depends only on a monotone clock
// producing zoned instants").
func systemClock() (clock.Clock, error) {
	return clock.NewSystem(conf.Timezone)
}
