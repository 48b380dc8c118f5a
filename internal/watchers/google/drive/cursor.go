package drive

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// CursorVersion is the current cursor format version.
const CursorVersion = 1

// ErrInvalidCursor indicates the cursor could not be decoded.
var ErrInvalidCursor = errors.New("drive: invalid cursor format")

// Cursor tracks Drive sync state. Incremental listings query on
// modifiedTime rather than the Changes API so a cursor never expires.
type Cursor struct {
	// Version is the cursor format version for future compatibility.
	Version int `json:"v"`
	// LastModified is the newest modifiedTime seen in the previous run,
	// RFC3339 as Drive reports it.
	LastModified string `json:"last_modified"`
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
	return c.LastModified == ""
}

// Advance records a modification time if it is newer than the current one.
func (c *Cursor) Advance(modifiedTime string) {
	if c.LastModified == "" {
		c.LastModified = modifiedTime
		return
	}
	current, err1 := time.Parse(time.RFC3339, c.LastModified)
	candidate, err2 := time.Parse(time.RFC3339, modifiedTime)
	if err1 != nil || err2 != nil {
		if modifiedTime > c.LastModified {
			c.LastModified = modifiedTime
		}
		return
	}
	if candidate.After(current) {
		c.LastModified = modifiedTime
	}
}
