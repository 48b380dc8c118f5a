package gmail

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// CursorVersion is the current cursor format version.
const CursorVersion = 1

// ErrInvalidCursor indicates the cursor could not be decoded.
var ErrInvalidCursor = errors.New("gmail: invalid cursor format")

// Cursor tracks Gmail sync state by message arrival time. Gmail history
// IDs expire; an internalDate watermark never does.
type Cursor struct {
	// Version is the cursor format version for future compatibility.
	Version int `json:"v"`
	// InternalDate is the newest internalDate seen in the previous run,
	// epoch milliseconds as Gmail reports it.
	InternalDate int64 `json:"internal_date"`
}

// NewCursor creates a new empty cursor.
func NewCursor() *Cursor {
	return &Cursor{Version: CursorVersion}
}

// Encode serialises the cursor to a base64 string for storage.
func (c *Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserialises a cursor from a base64 string.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return NewCursor(), nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}

	if cursor.Version > CursorVersion {
		return nil, ErrInvalidCursor
	}

	return &cursor, nil
}

// IsEmpty returns true if the cursor has no sync state.
func (c *Cursor) IsEmpty() bool {
	return c.InternalDate == 0
}

// Advance records an internalDate if it is newer than the current one.
func (c *Cursor) Advance(internalDate int64) {
	if internalDate > c.InternalDate {
		c.InternalDate = internalDate
	}
}
