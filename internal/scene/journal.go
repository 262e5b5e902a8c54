package scene

import "fmt"

// Listener observes every edit made through Scene methods. It is the hook
// for undo recording; the scene itself never branches on it.
type Listener interface {
	Created(h Handle)
	Reparented(h, from, to Handle)
	Moved(h Handle, from, to Vec3)
	Unpacked(root Handle)
	Destroyed(h Handle, key string)
}

// Op is the kind of a journal entry.
type Op uint8

const (
	OpCreate Op = iota
	OpReparent
	OpMove
	OpUnpack
	OpDestroy
)

var opNames = [...]string{"create", "reparent", "move", "unpack", "destroy"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// Entry is one recorded edit. Keys are captured at record time so entries
// stay readable after their nodes are destroyed.
type Entry struct {
	Op       Op
	Node     Handle
	Key      string
	From, To Handle
	FromKey  string
	ToKey    string
	FromPos  Vec3
	ToPos    Vec3
}

func (e Entry) String() string {
	switch e.Op {
	case OpReparent:
		return fmt.Sprintf("reparent %s: %s -> %s", e.Key, orRoot(e.FromKey), orRoot(e.ToKey))
	case OpMove:
		return fmt.Sprintf("move %s: (%g, %g, %g) -> (%g, %g, %g)", e.Key,
			e.FromPos.X, e.FromPos.Y, e.FromPos.Z, e.ToPos.X, e.ToPos.Y, e.ToPos.Z)
	default:
		return fmt.Sprintf("%s %s", e.Op, e.Key)
	}
}

func orRoot(key string) string {
	if key == "" {
		return "<root>"
	}
	return key
}

// Journal records edits in order. Attach it with Scene.SetListener.
type Journal struct {
	scene   *Scene
	entries []Entry
}

// NewJournal returns a journal resolving keys against s.
func NewJournal(s *Scene) *Journal {
	return &Journal{scene: s}
}

func (j *Journal) Created(h Handle) {
	j.entries = append(j.entries, Entry{Op: OpCreate, Node: h, Key: j.scene.Key(h)})
}

func (j *Journal) Reparented(h, from, to Handle) {
	j.entries = append(j.entries, Entry{
		Op: OpReparent, Node: h, Key: j.scene.Key(h),
		From: from, To: to, FromKey: j.scene.Key(from), ToKey: j.scene.Key(to),
	})
}

func (j *Journal) Moved(h Handle, from, to Vec3) {
	j.entries = append(j.entries, Entry{Op: OpMove, Node: h, Key: j.scene.Key(h), FromPos: from, ToPos: to})
}

func (j *Journal) Unpacked(root Handle) {
	j.entries = append(j.entries, Entry{Op: OpUnpack, Node: root, Key: j.scene.Key(root)})
}

func (j *Journal) Destroyed(h Handle, key string) {
	j.entries = append(j.entries, Entry{Op: OpDestroy, Node: h, Key: key})
}

// Entries returns a copy of the recorded entries.
func (j *Journal) Entries() []Entry {
	return append([]Entry(nil), j.entries...)
}

// Len returns the number of recorded entries.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Structural counts entries that changed the hierarchy: creations,
// reparents, unpacks and destructions. Pivot moves are not structural.
func (j *Journal) Structural() int {
	n := 0
	for _, e := range j.entries {
		if e.Op != OpMove {
			n++
		}
	}
	return n
}

// Count returns the number of entries with the given op.
func (j *Journal) Count(op Op) int {
	n := 0
	for _, e := range j.entries {
		if e.Op == op {
			n++
		}
	}
	return n
}

// Reset drops every recorded entry.
func (j *Journal) Reset() {
	j.entries = j.entries[:0]
}
