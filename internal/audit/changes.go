package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Field is the closed set of attribute names that may appear in a change set.
type Field string

const (
	FieldCode             Field = "code"
	FieldFirstName        Field = "first_name"
	FieldMiddleName       Field = "middle_name"
	FieldLastNamePaternal Field = "last_name_paternal"
	FieldLastNameMaternal Field = "last_name_maternal"
	FieldBirthDate        Field = "birth_date"
	FieldSex              Field = "sex"
	FieldPhone            Field = "phone"
	FieldCURP             Field = "curp"
	FieldManualStatus     Field = "manual_status"
	FieldStatusReason     Field = "status_reason"

	FieldName          Field = "name"
	FieldDescription   Field = "description"
	FieldAdmissionDate Field = "admission_date"
	FieldPaymentDate   Field = "payment_date"
	FieldIsActive      Field = "is_active"

	FieldVolunteer Field = "volunteer"
	FieldStudy     Field = "study"

	FieldUsername Field = "username"
	FieldFullName Field = "full_name"
	FieldIsStaff  Field = "is_staff"
)

var knownFields = map[Field]struct{}{
	FieldCode: {}, FieldFirstName: {}, FieldMiddleName: {}, FieldLastNamePaternal: {},
	FieldLastNameMaternal: {}, FieldBirthDate: {}, FieldSex: {}, FieldPhone: {}, FieldCURP: {},
	FieldManualStatus: {}, FieldStatusReason: {}, FieldName: {}, FieldDescription: {},
	FieldAdmissionDate: {}, FieldPaymentDate: {}, FieldIsActive: {}, FieldVolunteer: {},
	FieldStudy: {}, FieldUsername: {}, FieldFullName: {}, FieldIsStaff: {},
}

// IsKnown reports whether f belongs to the closed field set.
func (f Field) IsKnown() bool {
	_, ok := knownFields[f]
	return ok
}

// ChangeKind tags a Change.
type ChangeKind int

const (
	Unchanged ChangeKind = iota
	Added
	Modified
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	default:
		return "unchanged"
	}
}

// Change is the tagged value recorded for one field. Values are plain JSON
// scalars (string, bool, float64, nil).
type Change struct {
	Kind ChangeKind
	From any
	To   any
}

// Value is the recorded value of an Added change, or the new value of a
// Modified one.
func (c Change) Value() any {
	return c.To
}

// ChangeSet maps fields to their change. Unchanged fields are never stored.
type ChangeSet map[Field]Change

// NewChangeSet returns an empty change set.
func NewChangeSet() ChangeSet {
	return ChangeSet{}
}

// Add records a field in a creation snapshot.
func (cs ChangeSet) Add(f Field, v any) ChangeSet {
	cs[f] = Change{Kind: Added, To: v}
	return cs
}

// Compare records from -> to when the values differ.
func (cs ChangeSet) Compare(f Field, from, to any) ChangeSet {
	if from == to {
		return cs
	}
	cs[f] = Change{Kind: Modified, From: from, To: to}
	return cs
}

// Get returns the change recorded for f, Unchanged when absent.
func (cs ChangeSet) Get(f Field) Change {
	if c, ok := cs[f]; ok {
		return c
	}
	return Change{Kind: Unchanged}
}

// IsEmpty reports whether nothing changed.
func (cs ChangeSet) IsEmpty() bool {
	return len(cs) == 0
}

// Fields returns the recorded fields in lexical order.
func (cs ChangeSet) Fields() []Field {
	out := make([]Field, 0, len(cs))
	for f := range cs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type modifiedJSON struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// MarshalJSON encodes Added changes as the bare value and Modified changes as
// {"from": x, "to": y}.
func (cs ChangeSet) MarshalJSON() ([]byte, error) {
	out := make(map[Field]any, len(cs))
	for f, c := range cs {
		switch c.Kind {
		case Added:
			out[f] = c.To
		case Modified:
			out[f] = modifiedJSON{From: c.From, To: c.To}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the encoding produced by MarshalJSON. Objects with
// exactly the keys "from" and "to" are Modified; anything else is Added.
func (cs *ChangeSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*cs = nil
		return nil
	}
	var raw map[Field]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode change set: %w", err)
	}
	out := make(ChangeSet, len(raw))
	for f, msg := range raw {
		if !f.IsKnown() {
			return fmt.Errorf("decode change set: unknown field %q", f)
		}
		var obj map[string]any
		if err := json.Unmarshal(msg, &obj); err == nil && len(obj) == 2 {
			from, hasFrom := obj["from"]
			to, hasTo := obj["to"]
			if hasFrom && hasTo {
				out[f] = Change{Kind: Modified, From: from, To: to}
				continue
			}
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("decode change set field %q: %w", f, err)
		}
		out[f] = Change{Kind: Added, To: v}
	}
	*cs = out
	return nil
}
