package opsdesk

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Resource holds the identity and audit columns shared by backend entities.
type Resource struct {
	ID        string    `json:"id"         yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Facility statuses.
const (
	FacilityStatusActive      = "active"
	FacilityStatusInactive    = "inactive"
	FacilityStatusMaintenance = "maintenance"
)

// Facility is a managed site.
type Facility struct {
	Resource

	Name         string   `json:"name"                yaml:"name"`
	LocationName string   `json:"location_name"       yaml:"location_name"`
	Address      string   `json:"address,omitempty"   yaml:"address,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"  yaml:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Capacity     int      `json:"capacity"            yaml:"capacity"`
	Status       string   `json:"status"              yaml:"status"`
	PhotoURL     string   `json:"photo_url,omitempty" yaml:"photo_url,omitempty"`
}

// FacilityRequest creates or replaces a facility. Photo is sent as a file part.
type FacilityRequest struct {
	Name         string   `json:"name"                yaml:"name"`
	LocationName string   `json:"location_name"       yaml:"location_name"`
	Address      string   `json:"address,omitempty"   yaml:"address,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"  yaml:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Capacity     int      `json:"capacity"            yaml:"capacity"`
	Status       string   `json:"status,omitempty"    yaml:"status,omitempty"`
	Photo        *File    `json:"photo,omitempty"     yaml:"photo,omitempty"`
}

// InventoryItem is a stocked article at a facility.
type InventoryItem struct {
	Resource

	SKU          string `json:"sku"                   yaml:"sku"`
	Name         string `json:"name"                  yaml:"name"`
	Category     string `json:"category,omitempty"    yaml:"category,omitempty"`
	Quantity     int    `json:"quantity"              yaml:"quantity"`
	Unit         string `json:"unit,omitempty"        yaml:"unit,omitempty"`
	ReorderLevel int    `json:"reorder_level"         yaml:"reorder_level"`
	FacilityID   string `json:"facility_id,omitempty" yaml:"facility_id,omitempty"`
}

// InventoryItemRequest creates or replaces an inventory item.
type InventoryItemRequest struct {
	SKU          string `json:"sku"                   yaml:"sku"`
	Name         string `json:"name"                  yaml:"name"`
	Category     string `json:"category,omitempty"    yaml:"category,omitempty"`
	Quantity     int    `json:"quantity"              yaml:"quantity"`
	Unit         string `json:"unit,omitempty"        yaml:"unit,omitempty"`
	ReorderLevel int    `json:"reorder_level"         yaml:"reorder_level"`
	FacilityID   string `json:"facility_id,omitempty" yaml:"facility_id,omitempty"`
}

// StockAdjustment changes the quantity on hand by Delta.
type StockAdjustment struct {
	Delta  int    `json:"delta"            yaml:"delta"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// AttendanceRecord is one shift of an employee.
type AttendanceRecord struct {
	Resource

	EmployeeID   string     `json:"employee_id"             yaml:"employee_id"`
	EmployeeName string     `json:"employee_name,omitempty" yaml:"employee_name,omitempty"`
	FacilityID   string     `json:"facility_id,omitempty"   yaml:"facility_id,omitempty"`
	ClockIn      time.Time  `json:"clock_in"                yaml:"clock_in"`
	ClockOut     *time.Time `json:"clock_out,omitempty"     yaml:"clock_out,omitempty"`
	Status       string     `json:"status,omitempty"        yaml:"status,omitempty"`
	Notes        string     `json:"notes,omitempty"         yaml:"notes,omitempty"`
}

// ClockInRequest opens a shift.
type ClockInRequest struct {
	EmployeeID string `json:"employee_id"     yaml:"employee_id"`
	FacilityID string `json:"facility_id"     yaml:"facility_id"`
	Notes      string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ClockOutRequest closes a shift.
type ClockOutRequest struct {
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Hazard severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Hazard statuses.
const (
	HazardStatusOpen          = "open"
	HazardStatusInvestigating = "investigating"
	HazardStatusResolved      = "resolved"
	HazardStatusClosed        = "closed"
)

// HazardObservation is a reported safety hazard.
type HazardObservation struct {
	Resource

	Title       string     `json:"title"                 yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Severity    string     `json:"severity"              yaml:"severity"`
	Status      string     `json:"status"                yaml:"status"`
	FacilityID  string     `json:"facility_id,omitempty" yaml:"facility_id,omitempty"`
	ReportedBy  string     `json:"reported_by,omitempty" yaml:"reported_by,omitempty"`
	PhotoURLs   []string   `json:"photo_urls,omitempty"  yaml:"photo_urls,omitempty"`
	ObservedAt  *time.Time `json:"observed_at,omitempty" yaml:"observed_at,omitempty"`
}

// HazardReportRequest reports a hazard, optionally with photos.
type HazardReportRequest struct {
	Title       string     `json:"title"                 yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Severity    string     `json:"severity"              yaml:"severity"`
	FacilityID  string     `json:"facility_id"           yaml:"facility_id"`
	ObservedAt  *time.Time `json:"observed_at,omitempty" yaml:"observed_at,omitempty"`
	Photos      []File     `json:"photos,omitempty"      yaml:"photos,omitempty"`
}

// HazardStatusUpdate moves a hazard through its workflow.
type HazardStatusUpdate struct {
	Status          string `json:"status"                     yaml:"status"`
	ResolutionNotes string `json:"resolution_notes,omitempty" yaml:"resolution_notes,omitempty"`
}

// Ticket priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Ticket statuses.
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// Ticket is an IT support request.
type Ticket struct {
	Resource

	Subject      string  `json:"subject"                yaml:"subject"`
	Description  string  `json:"description,omitempty"  yaml:"description,omitempty"`
	Priority     string  `json:"priority"               yaml:"priority"`
	Status       string  `json:"status"                 yaml:"status"`
	Category     string  `json:"category,omitempty"     yaml:"category,omitempty"`
	RequesterID  string  `json:"requester_id,omitempty" yaml:"requester_id,omitempty"`
	AssigneeID   *string `json:"assignee_id,omitempty"  yaml:"assignee_id,omitempty"`
	CommentCount int     `json:"comment_count"          yaml:"comment_count"`
}

// TicketRequest opens or replaces a ticket.
type TicketRequest struct {
	Subject     string `json:"subject"               yaml:"subject"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    string `json:"priority"              yaml:"priority"`
	Category    string `json:"category,omitempty"    yaml:"category,omitempty"`
}

// TicketComment is a message on a ticket thread.
type TicketComment struct {
	Resource

	TicketID   string `json:"ticket_id"             yaml:"ticket_id"`
	AuthorID   string `json:"author_id,omitempty"   yaml:"author_id,omitempty"`
	AuthorName string `json:"author_name,omitempty" yaml:"author_name,omitempty"`
	Body       string `json:"body"                  yaml:"body"`
}

// TicketCommentRequest adds a comment to a ticket.
type TicketCommentRequest struct {
	Body string `json:"body" yaml:"body"`
}

// LoginRequest carries sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email"    yaml:"email"`
	Password string `json:"password" yaml:"password"`
}

// Profile is the signed-in user.
type Profile struct {
	ID    string `json:"id"             yaml:"id"`
	Name  string `json:"name"           yaml:"name"`
	Email string `json:"email"          yaml:"email"`
	Role  string `json:"role,omitempty" yaml:"role,omitempty"`
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string     `json:"token"                yaml:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	User      Profile    `json:"user"                 yaml:"user"`
}

// Validate checks that an upload carries a name and content.
func (f File) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Filename, validation.Required),
		validation.Field(&f.Content, validation.Required),
	)
}

// Validate checks the fields every facility reply must carry.
func (f Facility) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.Required),
		validation.Field(&f.Name, validation.Required),
		validation.Field(&f.LocationName, validation.Required),
		validation.Field(&f.Capacity, validation.Min(0)),
	)
}

// Validate checks a facility submission.
func (r FacilityRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.LocationName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Longitude, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&r.Capacity, validation.Min(0)),
		validation.Field(&r.Status, validation.In(FacilityStatusActive, FacilityStatusInactive, FacilityStatusMaintenance)),
		validation.Field(&r.Photo),
	)
}

// Validate checks the fields every inventory reply must carry.
func (i InventoryItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ID, validation.Required),
		validation.Field(&i.SKU, validation.Required),
		validation.Field(&i.Name, validation.Required),
	)
}

// Validate checks an inventory submission.
func (r InventoryItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SKU, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Quantity, validation.Min(0)),
		validation.Field(&r.ReorderLevel, validation.Min(0)),
	)
}

// Validate checks the fields every attendance reply must carry.
func (a AttendanceRecord) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required),
		validation.Field(&a.EmployeeID, validation.Required),
		validation.Field(&a.ClockIn, validation.Required),
	)
}

// Validate checks a clock-in submission.
func (r ClockInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EmployeeID, validation.Required),
		validation.Field(&r.FacilityID, validation.Required),
	)
}

// Validate checks the fields every hazard reply must carry.
func (h HazardObservation) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.ID, validation.Required),
		validation.Field(&h.Title, validation.Required),
		validation.Field(&h.Severity, validation.Required),
	)
}

// Validate checks a hazard report, including every attached photo.
func (r HazardReportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Severity, validation.Required, validation.In(SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical)),
		validation.Field(&r.FacilityID, validation.Required),
		validation.Field(&r.Photos),
	)
}

// Validate checks the fields every ticket reply must carry.
func (t Ticket) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Subject, validation.Required),
		validation.Field(&t.Status, validation.Required),
	)
}

// Validate checks a ticket submission.
func (r TicketRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Subject, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Priority, validation.Required, validation.In(PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)),
	)
}

// Validate checks the fields every comment reply must carry.
func (c TicketComment) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Body, validation.Required),
	)
}

// Validate checks a comment submission.
func (r TicketCommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Body, validation.Required, validation.Length(1, 4000)),
	)
}

// Validate checks sign-in credentials.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

// Validate checks a profile.
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.Email, validation.Required),
	)
}

// Validate checks a sign-in reply.
func (s Session) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Token, validation.Required),
		validation.Field(&s.User),
	)
}
