package editor

// saveUndo pushes the current state to the undo stack before a change of
// kind undoKind.
func (m *Model) saveUndo(undoKind string) {
	m.pushUndo(undoKind, m.d.Copy())
}

// saveUndoOnce is saveUndo, except that repeating the previous change of the
// same kind does not save again, so the repeats are undone together.
func (m *Model) saveUndoOnce(undoKind string) {
	if undoKind == m.prevUndoKind {
		return
	}
	m.saveUndo(undoKind)
}

func (m *Model) pushUndo(undoKind string, d modelData) {
	m.prevUndoKind = undoKind
	m.undoStack = append(m.undoStack, d)
	m.redoStack = m.redoStack[:0]
	m.limitUndoRedoLengths()
}

func (m *Model) CanUndo() bool { return len(m.undoStack) > 0 }
func (m *Model) CanRedo() bool { return len(m.redoStack) > 0 }

// Undo restores the state before the last change. Returns false if there is
// nothing to undo.
func (m *Model) Undo() bool {
	if !m.CanUndo() {
		return false
	}
	m.redoStack = append(m.redoStack, m.d.Copy())
	m.d = m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.prevUndoKind = ""
	m.d.ChangedSinceSave = true
	m.limitUndoRedoLengths()
	return true
}

// Redo reapplies the last undone change.
func (m *Model) Redo() bool {
	if !m.CanRedo() {
		return false
	}
	m.undoStack = append(m.undoStack, m.d.Copy())
	m.d = m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.prevUndoKind = ""
	m.d.ChangedSinceSave = true
	m.limitUndoRedoLengths()
	return true
}

func (m *Model) limitUndoRedoLengths() {
	maxUndo := m.cfg.UndoDepth
	if len(m.undoStack) > maxUndo {
		m.undoStack = m.undoStack[len(m.undoStack)-maxUndo:]
	}
	if len(m.redoStack) > maxUndo {
		m.redoStack = m.redoStack[len(m.redoStack)-maxUndo:]
	}
}
