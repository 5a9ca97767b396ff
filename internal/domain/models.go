// Package domain defines the persistence models for customers of the OPC
// incubator bot: users identified by a contact string, their business
// preference profile, recommended projects, payments, and fulfillment
// records. These types are mapped with GORM and shared by the repository,
// service, and tool layers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// User is a prospect identified by a single contact string (email, phone
// number, or chat handle). All other customer entities hang off a User.
//
// Fields:
//   - ID: surrogate auto-increment key.
//   - ContactInfo: unique business key; normalized before storage.
//   - CreatedAt / UpdatedAt: row timestamps.
//   - LastActiveAt: touched whenever the customer's info or a payment is saved.
type User struct {
	ID           uint      `json:"id"             gorm:"primaryKey"`
	ContactInfo  string    `json:"contact_info"   gorm:"type:varchar(255);not null;uniqueIndex:ux_users_contact"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// UserProfile holds the survey answers used to tailor recommendations.
// There is at most one profile per user (unique user_id).
//
// StartupBudget is expressed in units of 万元 (ten thousand CNY) and is NULL
// until the customer states a budget.
type UserProfile struct {
	ID             uint                `json:"id"              gorm:"primaryKey"`
	UserID         uint                `json:"user_id"         gorm:"not null;uniqueIndex:ux_profiles_user"`
	TargetCity     string              `json:"target_city"     gorm:"type:varchar(100);not null;default:''"`
	Skills         string              `json:"skills"          gorm:"type:text;not null;default:''"`
	WorkExperience string              `json:"work_experience" gorm:"type:text;not null;default:''"`
	Interests      string              `json:"interests"       gorm:"type:text;not null;default:''"`
	RiskTolerance  string              `json:"risk_tolerance"  gorm:"type:varchar(50);not null;default:''"`
	TimeCommitment string              `json:"time_commitment" gorm:"type:varchar(50);not null;default:''"`
	StartupBudget  decimal.NullDecimal `json:"startup_budget"  gorm:"type:decimal(10,2)"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// Recommendation is one business idea shown to a user.
type Recommendation struct {
	ID              uint                          `json:"id"               gorm:"primaryKey"`
	UserID          uint                          `json:"user_id"          gorm:"not null;index:idx_recommendations_user"`
	ProjectName     string                        `json:"project_name"     gorm:"type:varchar(255);not null"`
	CoreAdvantage   string                        `json:"core_advantage"   gorm:"type:text;not null;default:''"`
	EstimatedIncome string                        `json:"estimated_income" gorm:"type:varchar(100);not null;default:''"`
	StartupCost     string                        `json:"startup_cost"     gorm:"type:varchar(20);not null;default:''"`
	AITools         datatypes.JSONType[AIToolkit] `json:"ai_tools"         gorm:"column:ai_tools"`
	CreatedAt       time.Time                     `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Recommendation.
func (Recommendation) TableName() string { return "recommendations" }

// Payment is one entry of the append-only payment ledger.
type Payment struct {
	ID            uint            `json:"id"             gorm:"primaryKey"`
	UserID        uint            `json:"user_id"        gorm:"not null;index:idx_payments_user"`
	Amount        decimal.Decimal `json:"amount"         gorm:"type:decimal(10,2);not null"`
	PaymentMethod string          `json:"payment_method" gorm:"type:varchar(50);not null;default:''"`
	PaymentProof  string          `json:"payment_proof"  gorm:"type:text;not null;default:''"`
	PaymentStatus PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	TransactionID *string         `json:"transaction_id,omitempty" gorm:"type:varchar(255)"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Payment.
func (Payment) TableName() string { return "payments" }

// ServiceRecord tracks fulfillment after a payment: the delivered PDF and
// whether the customer joined the community group. GroupJoinedAt is set once,
// the first time GroupJoined becomes true.
type ServiceRecord struct {
	ID            uint       `json:"id"              gorm:"primaryKey"`
	UserID        uint       `json:"user_id"         gorm:"not null;index:idx_service_records_user"`
	PaymentID     *uint      `json:"payment_id"      gorm:"index"`
	PDFURL        string     `json:"pdf_url"         gorm:"column:pdf_url;type:text;not null;default:''"`
	GroupJoined   bool       `json:"group_joined"    gorm:"not null;default:false"`
	GroupJoinedAt *time.Time `json:"group_joined_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	User    User     `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Payment *Payment `json:"-" gorm:"foreignKey:PaymentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for ServiceRecord.
func (ServiceRecord) TableName() string { return "service_records" }

// CustomerModels lists the five customer tables in dependency order
// (parents first). Migrations run in this order and drops in reverse.
func CustomerModels() []any {
	return []any{
		&User{},
		&UserProfile{},
		&Recommendation{},
		&Payment{},
		&ServiceRecord{},
	}
}
