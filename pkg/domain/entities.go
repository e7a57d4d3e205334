package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// JSONMap persists arbitrary metadata fields as JSON.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}

// Attendance states a ticket moves through after purchase.
const (
	AttendanceNotAttended = "not_attended"
	AttendanceScanned     = "scanned"
)

// Roles assignable at registration.
const (
	RoleUser       = "user"
	RoleEventOwner = "event_owner"
	RoleAdmin      = "admin"
)

// Event is a bookable happening owned by the account that created it.
type Event struct {
	bun.BaseModel `bun:"table:events"`
	RecordMeta

	Name        string    `bun:",nullzero,notnull" json:"name"`
	Description string    `bun:",nullzero" json:"description"`
	Venue       string    `bun:",nullzero" json:"venue"`
	StartsAt    time.Time `bun:",nullzero" json:"starts_at"`
	EndsAt      time.Time `bun:",nullzero" json:"ends_at"`
	// CreatedBy holds the owner's email; ownership checks compare against it.
	CreatedBy string  `bun:",nullzero,notnull" json:"created_by"`
	Metadata  JSONMap `bun:"type:jsonb,nullzero" json:"metadata,omitempty"`
}

// Ticket is a purchasable ticket type within an event. QuantitySold never
// exceeds QuantityAvailable; the ledger service enforces the invariant under
// concurrent purchases.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`
	RecordMeta

	EventID           uuid.UUID `bun:",nullzero,notnull,type:uuid" json:"event_id"`
	TicketType        string    `bun:",nullzero,notnull" json:"ticket_type"`
	Price             float64   `bun:",nullzero" json:"price"`
	QuantityAvailable int       `bun:",notnull" json:"quantity_available"`
	QuantitySold      int       `bun:",notnull,default:0" json:"quantity_sold"`
	AttendanceStatus  string    `bun:",nullzero,notnull" json:"attendance_status"`
	PurchasedBy       string    `bun:",nullzero" json:"purchased_by,omitempty"`
	PurchasedAt       time.Time `bun:",nullzero" json:"purchased_at,omitempty"`
	ScannedAt         time.Time `bun:",nullzero" json:"scanned_at,omitempty"`
	// Version increments on every write so stores can offer compare-and-swap
	// updates alongside the ledger's per-ticket locking.
	Version int64 `bun:",notnull,default:0" json:"version"`
}

// Remaining reports how many units are still purchasable.
func (t *Ticket) Remaining() int {
	return t.QuantityAvailable - t.QuantitySold
}

// SoldOut reports whether no capacity remains.
func (t *Ticket) SoldOut() bool {
	return t.QuantitySold >= t.QuantityAvailable
}

// User is an account able to buy tickets or own events depending on its role.
type User struct {
	bun.BaseModel `bun:"table:users"`
	RecordMeta

	FirstName    string `bun:",nullzero" json:"first_name"`
	LastName     string `bun:",nullzero" json:"last_name"`
	Email        string `bun:",unique,nullzero,notnull" json:"email"`
	PhoneNumber  string `bun:",nullzero" json:"phone_number,omitempty"`
	PasswordHash string `bun:",nullzero,notnull" json:"-"`
	Role         string `bun:",nullzero,notnull" json:"role"`

	EmailVerified    bool      `bun:",notnull,default:false" json:"email_verified"`
	VerifyToken      string    `bun:",nullzero" json:"-"`
	VerifyExpiresAt  time.Time `bun:",nullzero" json:"-"`
	ResetToken       string    `bun:",nullzero" json:"-"`
	ResetExpiresAt   time.Time `bun:",nullzero" json:"-"`
	RefreshToken     string    `bun:",nullzero" json:"-"`
	RefreshExpiresAt time.Time `bun:",nullzero" json:"-"`
}

// ValidRole reports whether the role is one the system accepts at registration.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleEventOwner, RoleAdmin:
		return true
	default:
		return false
	}
}
