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
	"context"
	"sync"
)

// Pool hands out shared SSH transports keyed by physical endpoint
// (host, port, user), per spec §5: "When multiple hosts share a physical
// endpoint, the engine marks those transports keep-open for the batch so
// they are not torn down and re-established between per-subvolume
// commands." A single Pool is meant to back one engine invocation.
type Pool struct {
	mu    sync.Mutex
	conns map[string]*SSH
}

// NewPool returns an empty transport pool.
func NewPool() *Pool {
	return &Pool{conns: make(map[string]*SSH)}
}

// GetSSH returns a shared, keep-open-held SSH transport for cfg's
// endpoint, dialing it on first use. Callers must call Release (not
// Close) when done with this particular hold.
func (p *Pool) GetSSH(ctx context.Context, cfg SSHConfig) (*SSH, error) {
	key := cfg.addr() + "@" + cfg.User
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn, ok := p.conns[key]; ok {
		conn.KeepOpen()
		return conn, nil
	}
	conn, err := DialSSH(ctx, cfg)
	if err != nil {
		return nil, err
	}
	conn.KeepOpen()
	p.conns[key] = conn
	return conn, nil
}

// CloseAll force-closes every pooled connection regardless of
// outstanding holds. Call once at the end of a batch.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, conn := range p.conns {
		conn.ForceClose()
		delete(p.conns, key)
	}
}
