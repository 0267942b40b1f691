package display

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgramBridge forwards controller and action events into a running
// bubbletea program. It must exist before the program does, since the
// controller and actions are built first; call SetProgram once the program
// is created. Events arriving before that are dropped.
type ProgramBridge struct {
	program atomic.Pointer[tea.Program]
}

func (b *ProgramBridge) SetProgram(program *tea.Program) {
	b.program.Store(program)
}

// NotifyError shows err in the status line. It implements refresh.Notifier.
func (b *ProgramBridge) NotifyError(err error) {
	if program := b.program.Load(); program != nil {
		program.Send(NoticeMsg{Err: err})
	}
}

// Changed asks the model to re-read the controller snapshot. Use it as
// refresh.Options.OnChange.
func (b *ProgramBridge) Changed() {
	if program := b.program.Load(); program != nil {
		program.Send(SnapshotMsg{})
	}
}
