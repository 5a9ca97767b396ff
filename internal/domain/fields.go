package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// NormalizeContact canonicalizes a contact string before it is used as the
// users.contact_info key: surrounding whitespace is trimmed and full-width
// ASCII variants (common with Chinese IMEs, e.g. "ｕ＠ｘ．ｃｏｍ") are folded to
// their half-width forms. No format validation is applied.
func NormalizeContact(s string) string {
	return strings.TrimSpace(width.Fold.String(strings.TrimSpace(s)))
}

// ProfileFields is a partial set of UserProfile values. A nil pointer means
// "not supplied": create leaves the column at its default and update leaves
// the stored value untouched.
type ProfileFields struct {
	TargetCity     *string
	Skills         *string
	WorkExperience *string
	Interests      *string
	RiskTolerance  *string
	TimeCommitment *string
	StartupBudget  *decimal.Decimal
}

// Empty reports whether no field is supplied.
func (f ProfileFields) Empty() bool {
	return f.TargetCity == nil && f.Skills == nil && f.WorkExperience == nil &&
		f.Interests == nil && f.RiskTolerance == nil && f.TimeCommitment == nil &&
		f.StartupBudget == nil
}

// Apply copies every supplied field onto p.
func (f ProfileFields) Apply(p *UserProfile) {
	if f.TargetCity != nil {
		p.TargetCity = *f.TargetCity
	}
	if f.Skills != nil {
		p.Skills = *f.Skills
	}
	if f.WorkExperience != nil {
		p.WorkExperience = *f.WorkExperience
	}
	if f.Interests != nil {
		p.Interests = *f.Interests
	}
	if f.RiskTolerance != nil {
		p.RiskTolerance = *f.RiskTolerance
	}
	if f.TimeCommitment != nil {
		p.TimeCommitment = *f.TimeCommitment
	}
	if f.StartupBudget != nil {
		p.StartupBudget = decimal.NewNullDecimal(f.StartupBudget.Round(2))
	}
}

// Columns returns the supplied fields keyed by column name, suitable for a
// GORM map update.
func (f ProfileFields) Columns() map[string]any {
	cols := make(map[string]any, 7)
	if f.TargetCity != nil {
		cols["target_city"] = *f.TargetCity
	}
	if f.Skills != nil {
		cols["skills"] = *f.Skills
	}
	if f.WorkExperience != nil {
		cols["work_experience"] = *f.WorkExperience
	}
	if f.Interests != nil {
		cols["interests"] = *f.Interests
	}
	if f.RiskTolerance != nil {
		cols["risk_tolerance"] = *f.RiskTolerance
	}
	if f.TimeCommitment != nil {
		cols["time_commitment"] = *f.TimeCommitment
	}
	if f.StartupBudget != nil {
		cols["startup_budget"] = decimal.NewNullDecimal(f.StartupBudget.Round(2))
	}
	return cols
}

// RecommendationFields carries the values of a new Recommendation.
type RecommendationFields struct {
	ProjectName     string
	CoreAdvantage   string
	EstimatedIncome string
	StartupCost     string
	AITools         AIToolkit
}

// PaymentFields carries the values of a new Payment. A zero Status means
// PaymentPending and an empty Method means DefaultPaymentMethod.
type PaymentFields struct {
	Amount        decimal.Decimal
	Method        string
	Proof         string
	Status        PaymentStatus
	TransactionID *string
}

// ServiceRecordFields is a partial update of a ServiceRecord.
type ServiceRecordFields struct {
	PDFURL      *string
	GroupJoined *bool
}
