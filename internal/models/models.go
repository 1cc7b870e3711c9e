package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type User struct {
	ID               string     `db:"id"`
	Email            string     `db:"email"`
	Name             string     `db:"name"`
	PasswordHash     string     `db:"password_hash"`
	Role             Role       `db:"role"`
	Phone            *string    `db:"phone"`
	BirthDate        *time.Time `db:"birth_date"`
	Gender           *string    `db:"gender"`
	EmergencyContact *string    `db:"emergency_contact"`
	EmergencyPhone   *string    `db:"emergency_phone"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// OccasionStatus is shared by events and activities.
type OccasionStatus string

const (
	OccasionActive    OccasionStatus = "active"
	OccasionCompleted OccasionStatus = "completed"
	OccasionCancelled OccasionStatus = "cancelled"
)

func (s OccasionStatus) Valid() bool {
	switch s {
	case OccasionActive, OccasionCompleted, OccasionCancelled:
		return true
	}
	return false
}

type Event struct {
	ID                   string         `db:"id"`
	Title                string         `db:"title"`
	Description          *string        `db:"description"`
	EventDate            time.Time      `db:"event_date"`
	RegistrationDeadline time.Time      `db:"registration_deadline"`
	Location             string         `db:"location"`
	MaxParticipants      *int           `db:"max_participants"`
	RegistrationFee      int64          `db:"registration_fee"`
	Category             *string        `db:"category"`
	Distance             *string        `db:"distance"`
	ImageURL             *string        `db:"image_url"`
	Status               OccasionStatus `db:"status"`
	CreatedBy            string         `db:"created_by"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

// RequiresPayment reports whether registrations start in pending_payment.
func (e Event) RequiresPayment() bool {
	return e.RegistrationFee > 0
}

// RegistrationOpen reports whether now is on or before the deadline.
func (e Event) RegistrationOpen(now time.Time) bool {
	return !now.After(e.RegistrationDeadline)
}

// EventSummary is an event with its count of non-cancelled registrations.
type EventSummary struct {
	Event
	RegisteredCount int `db:"registered_count"`
}

type Registration struct {
	ID                    string             `db:"id"`
	Code                  string             `db:"registration_code"`
	EventID               string             `db:"event_id"`
	UserID                *string            `db:"user_id"`
	IdentityKey           string             `db:"identity_key"`
	FullName              string             `db:"full_name"`
	Email                 string             `db:"email"`
	Phone                 *string            `db:"phone"`
	BirthDate             *time.Time         `db:"birth_date"`
	Gender                *string            `db:"gender"`
	EmergencyContactName  *string            `db:"emergency_contact_name"`
	EmergencyContactPhone *string            `db:"emergency_contact_phone"`
	SpecialNeeds          *string            `db:"special_needs"`
	ShirtSize             *string            `db:"shirt_size"`
	PaymentProofID        *string            `db:"payment_proof_id"`
	Status                RegistrationStatus `db:"status"`
	RegisteredAt          time.Time          `db:"registered_at"`
	UpdatedAt             time.Time          `db:"updated_at"`
}

// RegistrationDetail joins a registration with the event it belongs to.
type RegistrationDetail struct {
	Registration
	EventTitle      string    `db:"event_title"`
	EventDate       time.Time `db:"event_date"`
	EventLocation   string    `db:"event_location"`
	RegistrationFee int64     `db:"registration_fee"`
	EventOwner      string    `db:"event_owner"`
}

type ActivityType string

const (
	ActivityRoutine ActivityType = "routine"
	ActivitySpecial ActivityType = "special"
)

func (t ActivityType) Valid() bool {
	return t == ActivityRoutine || t == ActivitySpecial
}

type Activity struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Description     *string        `db:"description"`
	ActivityDate    time.Time      `db:"activity_date"`
	Location        *string        `db:"location"`
	Type            ActivityType   `db:"activity_type"`
	MaxParticipants *int           `db:"max_participants"`
	Status          OccasionStatus `db:"status"`
	CreatedBy       string         `db:"created_by"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

type ActivitySummary struct {
	Activity
	AttendanceCount int `db:"attendance_count"`
}

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

type Attendance struct {
	ID             string           `db:"id"`
	ActivityID     *string          `db:"activity_id"`
	EventID        *string          `db:"event_id"`
	UserID         string           `db:"user_id"`
	Status         AttendanceStatus `db:"status"`
	Notes          *string          `db:"notes"`
	RecordedBy     string           `db:"recorded_by"`
	AttendanceDate time.Time        `db:"attendance_date"`
}

// AttendanceRecord is an attendance row with the names a listing shows.
type AttendanceRecord struct {
	Attendance
	UserName      string `db:"user_name"`
	UserEmail     string `db:"user_email"`
	OccasionTitle string `db:"occasion_title"`
	OccasionType  string `db:"occasion_type"`
}

type MediaAsset struct {
	ID          string    `db:"id"`
	OwnerUserID *string   `db:"owner_user_id"`
	Bucket      string    `db:"bucket"`
	StorageKey  string    `db:"storage_key"`
	Filename    *string   `db:"filename"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	Sha256      string    `db:"sha256"`
	CreatedAt   time.Time `db:"created_at"`
}

type ServerMetricSample struct {
	ID                  string    `db:"id"`
	CapturedAt          time.Time `db:"captured_at"`
	ProcessRSSBytes     int64     `db:"process_rss_bytes"`
	SystemMemoryTotal   int64     `db:"system_memory_total_bytes"`
	SystemMemoryUsed    int64     `db:"system_memory_used_bytes"`
	DiskTotalBytes      int64     `db:"disk_total_bytes"`
	DiskUsedBytes       int64     `db:"disk_used_bytes"`
	ProcessCpuLoad      float64   `db:"process_cpu_load"`
	SystemCpuLoad       float64   `db:"system_cpu_load"`
	ActiveRegistrations int64     `db:"active_registrations"`
	PendingPayments     int64     `db:"pending_payments"`
}
