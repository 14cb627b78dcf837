package mobject

// AddUpdater registers fn to run on every Update of m.
func (m *Mobject) AddUpdater(fn Updater) *Mobject {
	if fn != nil {
		m.updaters = append(m.updaters, fn)
	}
	return m
}

// ClearUpdaters removes every updater registered on m itself.
func (m *Mobject) ClearUpdaters() {
	m.updaters = nil
}

// HasUpdaters reports whether any family member carries an updater.
func (m *Mobject) HasUpdaters() bool {
	for _, member := range m.Family() {
		if len(member.updaters) > 0 {
			return true
		}
	}
	return false
}

// Update advances the updaters of m and its descendants by dt seconds.
// Suspended members are skipped.
func (m *Mobject) Update(dt float64) {
	if m == nil {
		return
	}
	if !m.suspended {
		for _, fn := range m.updaters {
			fn(m, dt)
		}
	}
	for _, child := range m.Submobjects {
		child.Update(dt)
	}
}

// SuspendUpdating freezes updaters across the family.
func (m *Mobject) SuspendUpdating() {
	for _, member := range m.Family() {
		member.suspended = true
	}
}

// ResumeUpdating re-enables updaters across the family.
func (m *Mobject) ResumeUpdating() {
	for _, member := range m.Family() {
		member.suspended = false
	}
}

// Suspended reports whether m's own updaters are frozen.
func (m *Mobject) Suspended() bool {
	return m.suspended
}
