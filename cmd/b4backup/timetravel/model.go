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

// Package timetravel is a read-only bubbletea browser over a single
// TargetHost's snapshot inventory, grounded on the teacher's
// cmd/btrsync/cmd/timemachine app: a two-column cursor model, here
// browsing snapshots instead of configured volumes, and their
// subvolumes instead of configured subvolumes. It never mutates
// anything; there is no delete or restore key binding.
package timetravel

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/denialofsandwich/b4-backup/pkg/snapshot"
	"github.com/denialofsandwich/b4-backup/pkg/targethost"
)

// Run starts the browser over host's current snapshot inventory and
// blocks until the user quits.
func Run(ctx context.Context, label string, host *targethost.TargetHost) error {
	snaps, err := host.Snapshots(ctx)
	if err != nil {
		return err
	}
	snapshot.SortByName(snaps)

	p := tea.NewProgram(model{label: label, snapshots: snaps})
	_, err = p.Run()
	return err
}

type pane int

const (
	paneSnapshots pane = iota
	paneSubvolumes
)

type model struct {
	label     string
	snapshots []snapshot.Snapshot

	active       pane
	snapCursor   int
	subvolCursor int
}

func (m model) Init() tea.Cmd { return tea.ClearScreen }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)

	case "down", "j":
		m.moveCursor(1)

	case "right", "l", "enter":
		if m.active == paneSnapshots && len(m.snapshots) > 0 {
			m.active = paneSubvolumes
			m.subvolCursor = 0
		}

	case "left", "h", "esc":
		m.active = paneSnapshots
	}

	return m, nil
}

func (m *model) moveCursor(delta int) {
	switch m.active {
	case paneSnapshots:
		m.snapCursor = clamp(m.snapCursor+delta, len(m.snapshots))
	case paneSubvolumes:
		m.subvolCursor = clamp(m.subvolCursor+delta, len(m.currentSubvolumes()))
	}
}

func clamp(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m model) currentSubvolumes() []string {
	if m.snapCursor >= len(m.snapshots) {
		return nil
	}
	return m.snapshots[m.snapCursor].Subvolumes
}

func (m model) View() string {
	s := fmt.Sprintf("%s — snapshots\n\n", m.label)

	for i, snap := range m.snapshots {
		cursor := "  "
		if m.active == paneSnapshots && i == m.snapCursor {
			cursor = "> "
		}
		retentionName, _ := snap.RetentionName()
		s += fmt.Sprintf("%s%s (%s)\n", cursor, snap.Name, retentionName)
	}

	if len(m.snapshots) == 0 {
		s += "  (no snapshots)\n"
	}

	s += "\nsubvolumes\n\n"
	for i, escaped := range m.currentSubvolumes() {
		cursor := "  "
		if m.active == paneSubvolumes && i == m.subvolCursor {
			cursor = "> "
		}
		rel, err := snapshot.Unescape(escaped)
		if err != nil {
			rel = escaped
		}
		s += fmt.Sprintf("%s%s\n", cursor, rel)
	}

	s += "\nup/down to move, enter/l to open a snapshot's subvolumes, esc/h to go back, q to quit.\n"
	return s
}
