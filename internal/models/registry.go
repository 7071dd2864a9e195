package models

// The admin panel operates on an explicit schema registry instead of runtime
// catalog introspection: only registered tables are reachable and only
// registered, writable columns can be patched.

// PanelRow is one generic panel record keyed by column name.
type PanelRow map[string]any

// Column describes one explicitly-permitted field of a panel table.
type Column struct {
	Name       string
	ReadOnly   bool // never accepted in update patches
	Searchable bool // participates in multi-field substring search
}

// Table describes one explicitly-permitted panel table.
type Table struct {
	Name     string
	IDColumn string
	Columns  []Column
}

// Column returns the descriptor for name, if registered.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames lists all registered column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// PanelRegistry is the full allow-list the admin panel may touch.
var PanelRegistry = map[string]*Table{
	"conversations": {
		Name:     "conversations",
		IDColumn: "id",
		Columns: []Column{
			{Name: "id", ReadOnly: true},
			{Name: "code", Searchable: true},
			{Name: "status", Searchable: true},
			{Name: "report", Searchable: true},
			{Name: "creator_ip", Searchable: true},
			{Name: "created_at", ReadOnly: true},
			{Name: "expires_at"},
			{Name: "last_activity"},
			{Name: "updated_at", ReadOnly: true},
		},
	},
	"accounts": {
		Name:     "accounts",
		IDColumn: "id",
		Columns: []Column{
			{Name: "id", ReadOnly: true},
			{Name: "username", Searchable: true},
			// Hashes are never shown in patches; list/get returns them only to
			// admins, updates always refuse them.
			{Name: "password_hash", ReadOnly: true},
			{Name: "failed_login_attempts"},
			{Name: "locked_until"},
			{Name: "last_login", ReadOnly: true},
			{Name: "created_at", ReadOnly: true},
			{Name: "updated_at", ReadOnly: true},
		},
	},
	"messages": {
		Name:     "messages",
		IDColumn: "id",
		Columns: []Column{
			{Name: "id", ReadOnly: true},
			{Name: "conversation_id"},
			{Name: "sender", Searchable: true},
			{Name: "content", Searchable: true},
			{Name: "file_path"},
			{Name: "created_at", ReadOnly: true},
			{Name: "is_read"},
			{Name: "read_at"},
			{Name: "deleted_at"},
		},
	},
	"rate_limits": {
		Name:     "rate_limits",
		IDColumn: "id",
		Columns: []Column{
			{Name: "id", ReadOnly: true},
			{Name: "ip_address", Searchable: true},
			{Name: "action_type", Searchable: true},
			{Name: "attempt_count"},
			{Name: "window_start"},
		},
	},
	"security_log": {
		Name:     "security_log",
		IDColumn: "id",
		Columns: []Column{
			{Name: "id", ReadOnly: true},
			{Name: "event_type", Searchable: true},
			{Name: "ip_address", Searchable: true},
			{Name: "user_agent", Searchable: true},
			{Name: "details", Searchable: true},
			{Name: "created_at", ReadOnly: true},
		},
	},
}

// PanelTable resolves a registered table by name.
func PanelTable(name string) (*Table, bool) {
	t, ok := PanelRegistry[name]
	return t, ok
}
