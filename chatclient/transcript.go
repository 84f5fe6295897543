package chatclient

import "time"

// EntryKind distinguishes transcript rows.
type EntryKind int

const (
	// EntryDateHeader is a "Today" / "Yesterday" / long-form date separator.
	EntryDateHeader EntryKind = iota
	// EntryMessage is a message bubble.
	EntryMessage
)

// Entry is one rendered transcript row.
type Entry struct {
	Kind    EntryKind
	Header  string  // set for EntryDateHeader
	Message Message // set for EntryMessage
	Mine    bool    // sender styling vs receiver styling
}

// Transcript renders messages for one room into an ordered entry list. It
// owns the date-separator cursor, so a fresh Transcript is created whenever
// a different room is opened. Appending a message whose id was already
// rendered is a no-op, which is what suppresses realtime echoes of
// reconciled optimistic sends.
type Transcript struct {
	viewerID string
	now      func() time.Time

	entries   []Entry
	indexByID map[string]int // message id -> position in entries
	lastDate  string         // calendar day of the last rendered message
}

// NewTranscript creates an empty transcript for the given viewer.
func NewTranscript(viewerID string) *Transcript {
	return &Transcript{
		viewerID:  viewerID,
		now:       time.Now,
		indexByID: make(map[string]int),
	}
}

// Append renders one message at the end of the transcript, inserting a date
// header first when the calendar day changed. It reports whether the message
// was added; duplicates by id are skipped.
func (t *Transcript) Append(msg Message) bool {
	if _, ok := t.indexByID[msg.ID]; ok {
		return false
	}

	if header := t.dateHeader(msg.CreatedAt); header != "" {
		t.entries = append(t.entries, Entry{Kind: EntryDateHeader, Header: header})
	}

	t.entries = append(t.entries, Entry{
		Kind:    EntryMessage,
		Message: msg,
		Mine:    msg.SenderID == t.viewerID,
	})
	t.indexByID[msg.ID] = len(t.entries) - 1
	return true
}

// AppendAll renders a message list in order.
func (t *Transcript) AppendAll(msgs []Message) {
	for _, msg := range msgs {
		t.Append(msg)
	}
}

// Reconcile swaps a pending entry's temporary id for the backend-assigned
// one, so a later realtime echo of the same message deduplicates. The entry
// keeps its optimistic position and timestamp.
func (t *Transcript) Reconcile(tempID string, saved Message) bool {
	idx, ok := t.indexByID[tempID]
	if !ok {
		return false
	}

	entry := t.entries[idx]
	entry.Message.ID = saved.ID
	entry.Message.Pending = false
	t.entries[idx] = entry

	delete(t.indexByID, tempID)
	t.indexByID[saved.ID] = idx
	return true
}

// Has reports whether a message id is already rendered.
func (t *Transcript) Has(id string) bool {
	_, ok := t.indexByID[id]
	return ok
}

// Entries returns a copy of the rendered rows.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of rendered rows, headers included.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// dateHeader returns the separator text to insert before a message created
// at the given time, or "" when the previous message was on the same day.
func (t *Transcript) dateHeader(created time.Time) string {
	day := created.Local().Format("2006-01-02")
	if day == t.lastDate {
		return ""
	}
	t.lastDate = day

	now := t.now().Local()
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	switch day {
	case today:
		return "Today"
	case yesterday:
		return "Yesterday"
	default:
		return created.Local().Format("January 2, 2006")
	}
}

// FormatMessageTime renders the in-bubble timestamp, e.g. "3:04 PM".
func FormatMessageTime(created time.Time) string {
	return created.Local().Format("3:04 PM")
}

// RenderTranscript is the pure form of transcript building: it renders a
// complete message list for a viewer in one call. Re-rendering the same list
// always yields the same entries, with no consecutive duplicate headers.
func RenderTranscript(msgs []Message, viewerID string) []Entry {
	t := NewTranscript(viewerID)
	t.AppendAll(msgs)
	return t.Entries()
}
