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
	"io"
	"os/exec"
)

// Local runs commands directly on this host via os/exec. It has no
// opening cost, so KeepOpen/Release/Close are no-ops (spec §5).
type Local struct{}

// NewLocal returns a Local transport.
func NewLocal() *Local { return &Local{} }

func (l *Local) Run(ctx context.Context, argv []string) (string, error) {
	return l.runWithStdin(ctx, argv, nil)
}

func (l *Local) Pipe(ctx context.Context, argv []string, r io.Reader) (string, error) {
	return l.runWithStdin(ctx, argv, r)
}

func (l *Local) runWithStdin(ctx context.Context, argv []string, stdin io.Reader) (string, error) {
	if len(argv) == 0 {
		return "", &FailedProcessError{Argv: argv, Err: errEmptyArgv}
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), &FailedProcessError{Argv: argv, Stdout: out.String(), Err: err}
	}
	return out.String(), nil
}

func (l *Local) StartSend(ctx context.Context, argv []string) (io.WriteCloser, func() error, error) {
	if len(argv) == 0 {
		return nil, nil, &FailedProcessError{Argv: argv, Err: errEmptyArgv}
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, nil, &FailedProcessError{Argv: argv, Err: err}
	}
	finish := func() error {
		if err := cmd.Wait(); err != nil {
			return &FailedProcessError{Argv: argv, Stderr: stderr.String(), Err: err}
		}
		return nil
	}
	return stdin, finish, nil
}

func (l *Local) StartReceive(ctx context.Context, argv []string) (io.ReadCloser, func() error, error) {
	if len(argv) == 0 {
		return nil, nil, &FailedProcessError{Argv: argv, Err: errEmptyArgv}
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, nil, &FailedProcessError{Argv: argv, Err: err}
	}
	finish := func() error {
		if err := cmd.Wait(); err != nil {
			return &FailedProcessError{Argv: argv, Stderr: stderr.String(), Err: err}
		}
		return nil
	}
	return stdout, finish, nil
}

func (l *Local) ExecPrefix() string { return "" }
func (l *Local) KeepOpen()          {}
func (l *Local) Release()           {}
func (l *Local) Close() error       { return nil }

var errEmptyArgv = &emptyArgvError{}

type emptyArgvError struct{}

func (e *emptyArgvError) Error() string { return "empty command argv" }
