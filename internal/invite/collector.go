package invite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Entry is one collected address. IsValid is recomputed whenever Email
// changes and cannot be set directly from outside the package.
type Entry struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	IsValid bool   `json:"isValid"`
}

// Key is a key press forwarded from the email input.
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyBackspace Key = "Backspace"
	KeyComma     Key = ","
	KeySpace     Key = " "
)

var (
	// pasteSeparators matches runs of spreadsheet cell and row separators.
	pasteSeparators = regexp.MustCompile(`[\t\n\r,;]+`)
	// cellSeparators splits a single spreadsheet cell holding several addresses.
	cellSeparators = regexp.MustCompile(`[` + whitespace + `,;]+`)
	// wrapperChars strips quoting and angle brackets copied along with an address.
	wrapperChars = regexp.MustCompile(`^["'<]+|["'>]+$`)
)

// ImportReport summarises a spreadsheet import.
type ImportReport struct {
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Added   int `json:"added"`
}

// Collector owns the pending input buffer and the de-duplicated entry list.
// It is single-writer: callers serialise access.
type Collector struct {
	buffer  string
	role    Role
	entries []Entry
	newID   func() string
}

// NewCollector returns an empty collector assigning DefaultRole.
func NewCollector() *Collector {
	return &Collector{
		role:  DefaultRole,
		newID: func() string { return uuid.NewString() },
	}
}

// restore replaces the collector contents. Validity is recomputed rather
// than trusted.
func (c *Collector) restore(buffer string, role Role, entries []Entry) {
	c.buffer = buffer
	c.role = role
	if !role.Valid() {
		c.role = DefaultRole
	}
	c.entries = make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			e.ID = c.newID()
		}
		if !e.Role.Valid() {
			e.Role = c.role
		}
		e.IsValid = IsValidEmail(e.Email)
		c.entries = append(c.entries, e)
	}
}

// Buffer returns the pending, not yet tokenized input.
func (c *Collector) Buffer() string { return c.buffer }

// SelectedRole returns the role assigned to newly added entries.
func (c *Collector) SelectedRole() Role { return c.role }

// Entries returns a copy of the collected entries in insertion order.
func (c *Collector) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of collected entries.
func (c *Collector) Len() int { return len(c.entries) }

// HasInvalid reports whether any entry failed validation.
func (c *Collector) HasInvalid() bool {
	return lo.SomeBy(c.entries, func(e Entry) bool { return !e.IsValid })
}

// =============================================================================
// TYPED INPUT
// =============================================================================

// Input records the current value of the text field. A trailing comma,
// space or newline flushes the rest of the value as an entry.
func (c *Collector) Input(value string) {
	c.buffer = value
	if value == "" {
		return
	}
	switch value[len(value)-1] {
	case ',', ' ', '\n':
		if email := strings.TrimSpace(value[:len(value)-1]); email != "" {
			c.Add(email)
		}
	}
}

// KeyDown handles a key press in the text field and reports whether the key
// was consumed (the caller must not insert it into the field).
func (c *Collector) KeyDown(key Key) bool {
	switch key {
	case KeyEnter:
		if email := strings.TrimSpace(c.buffer); email != "" {
			c.Add(email)
		}
		return true
	case KeyBackspace:
		if c.buffer == "" && len(c.entries) > 0 {
			c.entries = c.entries[:len(c.entries)-1]
			return true
		}
	case KeyComma, KeySpace:
		if email := strings.TrimSpace(c.buffer); email != "" {
			c.Add(email)
			return true
		}
	}
	return false
}

// Add inserts email unless an entry with the same address (ignoring case)
// already exists. The input buffer is cleared either way. It reports
// whether a new entry was created.
func (c *Collector) Add(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	c.buffer = ""
	if c.contains(email) {
		return false
	}
	c.entries = append(c.entries, c.entry(email))
	return true
}

// =============================================================================
// PASTE AND IMPORT
// =============================================================================

// Paste tokenizes clipboard text and adds every address-like token. When the
// text holds no candidates it is placed in the input buffer unchanged so the
// user can edit it by hand. It returns the number of entries added.
func (c *Collector) Paste(text string) int {
	if text == "" {
		return 0
	}
	candidates := PasteCandidates(text)
	if len(candidates) == 0 {
		c.buffer = text
		return 0
	}
	return c.merge(candidates)
}

// Import merges the addresses found in a spreadsheet grid. Cells without an
// @ are ignored; any column may contribute.
func (c *Collector) Import(rows [][]string) (ImportReport, error) {
	tokens := ExtractEmails(rows)
	if len(tokens) == 0 {
		return ImportReport{}, ErrNoEmailsFound
	}
	valid, invalid := SplitByValidity(tokens)
	return ImportReport{
		Valid:   len(valid),
		Invalid: len(invalid),
		Added:   c.merge(tokens),
	}, nil
}

// PasteCandidates returns the cleaned, address-like tokens of pasted text.
// A token qualifies when it contains both @ and a dot.
func PasteCandidates(text string) []string {
	var out []string
	for _, item := range pasteSeparators.Split(text, -1) {
		item = strings.TrimSpace(item)
		if item == "" || !strings.Contains(item, "@") || !strings.Contains(item, ".") {
			continue
		}
		if cleaned := strings.TrimSpace(wrapperChars.ReplaceAllString(item, "")); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// ExtractEmails flattens every @-bearing cell of rows into tokens, splitting
// cells that hold several addresses.
func ExtractEmails(rows [][]string) []string {
	var out []string
	for _, row := range rows {
		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if !strings.Contains(cell, "@") {
				continue
			}
			for _, tok := range cellSeparators.Split(cell, -1) {
				if tok = strings.TrimSpace(tok); tok != "" {
					out = append(out, tok)
				}
			}
		}
	}
	return out
}

func (c *Collector) merge(emails []string) int {
	seen := make(map[string]struct{}, len(c.entries)+len(emails))
	for _, e := range c.entries {
		seen[strings.ToLower(e.Email)] = struct{}{}
	}
	added := 0
	for _, email := range emails {
		if strings.TrimSpace(email) == "" {
			continue
		}
		key := strings.ToLower(email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		c.entries = append(c.entries, c.entry(email))
		added++
	}
	return added
}

// =============================================================================
// EDITING
// =============================================================================

// UpdateEmail replaces the address of entry id and re-validates it.
func (c *Collector) UpdateEmail(id, email string) (Entry, error) {
	i, err := c.index(id)
	if err != nil {
		return Entry{}, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return Entry{}, ErrEmptyEmail
	}
	for j, e := range c.entries {
		if j != i && sameEmail(e.Email, email) {
			return Entry{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
		}
	}
	c.entries[i].Email = email
	c.entries[i].IsValid = IsValidEmail(email)
	return c.entries[i], nil
}

// SetRole changes the role of a single entry.
func (c *Collector) SetRole(id string, role Role) (Entry, error) {
	if !role.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	i, err := c.index(id)
	if err != nil {
		return Entry{}, err
	}
	c.entries[i].Role = role
	return c.entries[i], nil
}

// SelectRole sets the role for new entries and applies it to every current
// entry. Later SetRole calls override it per entry.
func (c *Collector) SelectRole(role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	c.role = role
	for i := range c.entries {
		c.entries[i].Role = role
	}
	return nil
}

// Remove deletes entry id.
func (c *Collector) Remove(id string) error {
	i, err := c.index(id)
	if err != nil {
		return err
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	return nil
}

// Clear drops every entry.
func (c *Collector) Clear() {
	c.entries = nil
}

func (c *Collector) entry(email string) Entry {
	return Entry{
		ID:      c.newID(),
		Email:   email,
		Role:    c.role,
		IsValid: IsValidEmail(email),
	}
}

func (c *Collector) contains(email string) bool {
	return lo.ContainsBy(c.entries, func(e Entry) bool {
		return sameEmail(e.Email, email)
	})
}

func sameEmail(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}

func (c *Collector) index(id string) (int, error) {
	_, i, ok := lo.FindIndexOf(c.entries, func(e Entry) bool { return e.ID == id })
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return i, nil
}
