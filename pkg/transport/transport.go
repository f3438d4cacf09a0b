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

// Package transport abstracts running a command pipeline on either the
// local host or a remote host. The engine and TargetHost consume only
// this interface; concrete filesystem tool invocations (snapshot
// create/delete, send/receive, subvolume listing, mkdir/mv/rm) are
// composed as argv slices by higher layers and issued through it.
package transport

import (
	"context"
	"fmt"
	"io"
)

// Transport runs a command pipeline and returns its combined output, or an
// error carrying full diagnostics when the command exits non-zero.
type Transport interface {
	// Run executes argv and returns its combined stdout+stderr text.
	Run(ctx context.Context, argv []string) (string, error)

	// Pipe executes argv with stdin connected to r, returning combined
	// stdout+stderr once the command completes. Used for framing a
	// differential stream through an intermediate filter (e.g. a
	// compressor) before or after the wire send/receive command.
	Pipe(ctx context.Context, argv []string, r io.Reader) (string, error)

	// StartSend begins argv and returns a writer; the caller streams
	// the differential data into it and calls the returned finish
	// function once done writing, which waits for the command and
	// returns its error.
	StartSend(ctx context.Context, argv []string) (w io.WriteCloser, finish func() error, err error)

	// StartReceive begins argv and returns a reader the caller drains
	// as the command's stdout data stream (stderr is kept apart for
	// diagnostics), plus a finish function to await completion and
	// surface any error.
	StartReceive(ctx context.Context, argv []string) (r io.ReadCloser, finish func() error, err error)

	// ExecPrefix returns the prefix this transport composes piped shell
	// commands with (empty for local; "ssh -p <port> <user>@<host> " for
	// SSH), per spec §6.
	ExecPrefix() string

	// KeepOpen marks the transport as shared for the duration of a
	// batch of operations so it is not torn down and re-established
	// between per-subvolume commands (spec §5). Close is a no-op while
	// a keep-open hold is active; Release drops one hold.
	KeepOpen()
	Release()

	// Close tears down the transport's underlying connection, if any.
	// Local transports have no opening cost and Close is a no-op.
	Close() error
}

// FailedProcessError is raised by any transport command that exits
// non-zero. It carries the argv, and both stdout/stderr where available,
// for diagnostics.
type FailedProcessError struct {
	Argv   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *FailedProcessError) Error() string {
	return fmt.Sprintf("command %v failed: %v: stdout=%q stderr=%q", e.Argv, e.Err, e.Stdout, e.Stderr)
}

func (e *FailedProcessError) Unwrap() error { return e.Err }
