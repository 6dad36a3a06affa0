// Package pager keeps the per-message state behind navigable bot responses:
// an append-only history of generated answers, the index currently shown and
// a soft-delete flag. Button clicks for the same message may arrive out of
// order or long after the message was sent; the store serializes them per
// message id and every render re-checks the deleted flag right before the
// final edit.
package pager

// Attachment is one file reference carried by an answer.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Answer is one generated response page.
type Answer struct {
	Content string       `json:"content"`
	Files   []Attachment `json:"files,omitempty"`
}

// Record is the persisted pagination state for one message.
// Invariant: 0 <= Index < len(Answers). Answers is append-only.
type Record struct {
	Answers []Answer `json:"answers"`
	Index   int      `json:"index"`
	Deleted bool     `json:"deleted"`
}

// Current returns the answer at the current index.
func (r *Record) Current() Answer {
	if r.Index < 0 || r.Index >= len(r.Answers) {
		return Answer{}
	}
	return r.Answers[r.Index]
}

// clampIndex keeps Index within the answers, with 0 winning on an empty
// record so the invariant Index >= 0 holds unconditionally.
func (r *Record) clampIndex() {
	if r.Index > len(r.Answers)-1 {
		r.Index = len(r.Answers) - 1
	}
	if r.Index < 0 {
		r.Index = 0
	}
}

// AttachMethod says how new files merge into the current answer.
type AttachMethod int

const (
	// AttachReplace drops existing files and keeps only the new ones.
	AttachReplace AttachMethod = iota
	// AttachAppend keeps existing files and adds the new ones after them.
	AttachAppend
	// AttachCombine merges both sets, deduplicating by file name; on a
	// name clash the new file wins.
	AttachCombine
)

func mergeFiles(current, incoming []Attachment, method AttachMethod) []Attachment {
	switch method {
	case AttachReplace:
		return append([]Attachment(nil), incoming...)
	case AttachAppend:
		return append(append([]Attachment(nil), current...), incoming...)
	case AttachCombine:
		merged := append([]Attachment(nil), current...)
		for _, in := range incoming {
			replaced := false
			for i, have := range merged {
				if have.Name == in.Name {
					merged[i] = in
					replaced = true
					break
				}
			}
			if !replaced {
				merged = append(merged, in)
			}
		}
		return merged
	}
	return current
}
