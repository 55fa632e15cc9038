package leads

import (
	"encoding/json"
	"time"
)

// City is the closed set of cities a buyer can target.
type City string

const (
	CityChandigarh City = "Chandigarh"
	CityMohali     City = "Mohali"
	CityZirakpur   City = "Zirakpur"
	CityPanchkula  City = "Panchkula"
	CityOther      City = "Other"
)

// PropertyType is the kind of property a buyer is after.
type PropertyType string

const (
	PropertyApartment PropertyType = "Apartment"
	PropertyVilla     PropertyType = "Villa"
	PropertyPlot      PropertyType = "Plot"
	PropertyOffice    PropertyType = "Office"
	PropertyRetail    PropertyType = "Retail"
)

// RequiresBHK reports whether leads for this property type must carry a bedroom count.
func (p PropertyType) RequiresBHK() bool {
	return p == PropertyApartment || p == PropertyVilla
}

// BHK is the bedroom-count category.
type BHK string

const (
	BHK1      BHK = "1"
	BHK2      BHK = "2"
	BHK3      BHK = "3"
	BHK4      BHK = "4"
	BHKStudio BHK = "Studio"
)

// Purpose is buy or rent.
type Purpose string

const (
	PurposeBuy  Purpose = "Buy"
	PurposeRent Purpose = "Rent"
)

// Timeline is how soon the buyer intends to close.
type Timeline string

const (
	Timeline0To3Months Timeline = "0-3m"
	Timeline3To6Months Timeline = "3-6m"
	TimelineOver6      Timeline = ">6m"
	TimelineExploring  Timeline = "Exploring"
)

// Source is where the lead came from.
type Source string

const (
	SourceWebsite  Source = "Website"
	SourceReferral Source = "Referral"
	SourceWalkIn   Source = "Walk-in"
	SourceCall     Source = "Call"
	SourceOther    Source = "Other"
)

// Status is the workflow position of a lead. New leads always start at StatusNew.
type Status string

const (
	StatusNew         Status = "New"
	StatusQualified   Status = "Qualified"
	StatusContacted   Status = "Contacted"
	StatusVisited     Status = "Visited"
	StatusNegotiation Status = "Negotiation"
	StatusConverted   Status = "Converted"
	StatusDropped     Status = "Dropped"
)

var (
	cityValues         = []string{"Chandigarh", "Mohali", "Zirakpur", "Panchkula", "Other"}
	propertyTypeValues = []string{"Apartment", "Villa", "Plot", "Office", "Retail"}
	bhkValues          = []string{"1", "2", "3", "4", "Studio"}
	purposeValues      = []string{"Buy", "Rent"}
	timelineValues     = []string{"0-3m", "3-6m", ">6m", "Exploring"}
	sourceValues       = []string{"Website", "Referral", "Walk-in", "Call", "Other"}
)

// Lead is a buyer lead as stored in the buyers table.
type Lead struct {
	ID           string       `json:"id"`
	FullName     string       `json:"fullName"`
	Email        *string      `json:"email"`
	Phone        string       `json:"phone"`
	City         City         `json:"city"`
	PropertyType PropertyType `json:"propertyType"`
	BHK          *BHK         `json:"bhk"`
	Purpose      Purpose      `json:"purpose"`
	BudgetMin    *int         `json:"budgetMin"`
	BudgetMax    *int         `json:"budgetMax"`
	Timeline     Timeline     `json:"timeline"`
	Source       Source       `json:"source"`
	Status       Status       `json:"status"`
	Notes        *string      `json:"notes"`
	Tags         []string     `json:"tags"`
	OwnerID      string       `json:"ownerId"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// LeadInput is a validated, fully coerced submission ready to be written.
type LeadInput struct {
	FullName     string
	Email        *string
	Phone        string
	City         City
	PropertyType PropertyType
	BHK          *BHK
	Purpose      Purpose
	BudgetMin    *int
	BudgetMax    *int
	Timeline     Timeline
	Source       Source
	Notes        *string
	Tags         []string

	// ExpectedUpdatedAt is the last-seen version of the record for a future
	// compare-and-swap update path. Create ignores it.
	ExpectedUpdatedAt *time.Time
}

// Owner is the user row a lead belongs to.
type Owner struct {
	ID    string
	Email string
}

// DiffAction tags an audit diff.
type DiffAction string

const (
	DiffCreated DiffAction = "created"
	DiffUpdated DiffAction = "updated"
	DiffDeleted DiffAction = "deleted"
)

// Diff describes one mutation of a lead. Created diffs carry Data, updated diffs
// carry Before and After, deleted diffs carry Before.
type Diff struct {
	Action DiffAction `json:"action"`
	Data   *Lead      `json:"data,omitempty"`
	Before *Lead      `json:"before,omitempty"`
	After  *Lead      `json:"after,omitempty"`
}

// CreatedDiff records the full lead as inserted.
func CreatedDiff(lead *Lead) Diff {
	return Diff{Action: DiffCreated, Data: lead}
}

// UpdatedDiff records a before/after pair.
func UpdatedDiff(before, after *Lead) Diff {
	return Diff{Action: DiffUpdated, Before: before, After: after}
}

// DeletedDiff records the last state of a removed lead.
func DeletedDiff(before *Lead) Diff {
	return Diff{Action: DiffDeleted, Before: before}
}

// HistoryEntry is one append-only audit row for a lead.
type HistoryEntry struct {
	ID        string          `json:"id"`
	LeadID    string          `json:"leadId"`
	ChangedBy string          `json:"changedBy"`
	ChangedAt time.Time       `json:"changedAt"`
	Diff      json.RawMessage `json:"diff"`
}

// DecodeDiff unmarshals the stored payload into its tagged form.
func (h *HistoryEntry) DecodeDiff() (Diff, error) {
	var d Diff
	err := json.Unmarshal(h.Diff, &d)
	return d, err
}

func newLeadFromInput(id string, owner Owner, in *LeadInput, now time.Time) *Lead {
	tags := in.Tags
	if tags != nil {
		tags = append([]string(nil), tags...)
	}
	return &Lead{
		ID:           id,
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        in.Phone,
		City:         in.City,
		PropertyType: in.PropertyType,
		BHK:          in.BHK,
		Purpose:      in.Purpose,
		BudgetMin:    in.BudgetMin,
		BudgetMax:    in.BudgetMax,
		Timeline:     in.Timeline,
		Source:       in.Source,
		Status:       StatusNew,
		Notes:        in.Notes,
		Tags:         tags,
		OwnerID:      owner.ID,
		UpdatedAt:    now,
	}
}
