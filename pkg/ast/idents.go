package ast

// IdentTable maps the names visible in one function to their slots. Slots
// always form the dense range 0..Len()-1.
type IdentTable struct {
	slots map[string]Slot
	names []string
}

// NewIdentTable seeds a table with the function's parameters at slots
// 0..len(params)-1. A repeated parameter name still takes its positional
// slot but lookups resolve to the first occurrence.
func NewIdentTable(params []string) *IdentTable {
	t := &IdentTable{slots: make(map[string]Slot, len(params))}
	for _, name := range params {
		t.alloc(name)
	}
	return t
}

func (t *IdentTable) alloc(name string) Slot {
	slot := Slot(len(t.names))
	t.names = append(t.names, name)
	if _, exists := t.slots[name]; !exists {
		t.slots[name] = slot
	}
	return slot
}

func (t *IdentTable) Lookup(name string) (Slot, bool) {
	slot, ok := t.slots[name]
	return slot, ok
}

// Bind returns the slot already bound to name, or allocates the next one.
func (t *IdentTable) Bind(name string) Slot {
	if slot, ok := t.slots[name]; ok {
		return slot
	}
	return t.alloc(name)
}

func (t *IdentTable) Len() int { return len(t.names) }

// Names returns the name held by each slot, in slot order.
func (t *IdentTable) Names() []string {
	return append([]string(nil), t.names...)
}
