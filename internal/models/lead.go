package models

import "time"

// Stage is a lead's position on the pipeline board.
type Stage string

const (
	StageReception   Stage = "reception"
	StageConsulting  Stage = "consulting"
	StageQuoted      Stage = "quoted"
	StageNegotiating Stage = "negotiating"
	StageClosed      Stage = "closed"
)

// Stages lists the board columns in display order.
var Stages = []Stage{StageReception, StageConsulting, StageQuoted, StageNegotiating, StageClosed}

var stageLabels = map[Stage]string{
	StageReception:   "Reception",
	StageConsulting:  "Consulting",
	StageQuoted:      "Quoted",
	StageNegotiating: "Negotiating",
	StageClosed:      "Closed",
}

func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

func (s Stage) Label() string {
	return stageLabels[s]
}

// Rank is the column index of s, or -1 for unknown stages.
func (s Stage) Rank() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// LeadStatus is the contact status; it is independent of the pipeline stage.
type LeadStatus string

const (
	StatusNew           LeadStatus = "new"
	StatusContacted     LeadStatus = "contacted"
	StatusPotential     LeadStatus = "potential"
	StatusNotInterested LeadStatus = "not_interested"
)

type LeadSource string

const (
	SourceFacebook  LeadSource = "facebook"
	SourceZalo      LeadSource = "zalo"
	SourceGoogleAds LeadSource = "google_ads"
	SourceManual    LeadSource = "manual"
)

type Lead struct {
	ID              int        `json:"id"`
	Name            string     `json:"name" validate:"notblank"`
	Phone           string     `json:"phone,omitempty"`
	Email           string     `json:"email,omitempty"`
	Source          LeadSource `json:"source" validate:"oneof=facebook zalo google_ads manual"`
	Region          string     `json:"region,omitempty"`
	Product         string     `json:"product,omitempty"`
	Status          LeadStatus `json:"status" validate:"oneof=new contacted potential not_interested"`
	Stage           Stage      `json:"stage" validate:"oneof=reception consulting quoted negotiating closed"`
	Value           *float64   `json:"value,omitempty" validate:"omitempty,gte=0"`
	AssignedTo      *int       `json:"assignedTo,omitempty" validate:"omitempty,gt=0"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" validate:"gtefield=CreatedAt"`
}

// Clone returns a copy that shares no pointers with l.
func (l Lead) Clone() Lead {
	out := l
	if l.Value != nil {
		v := *l.Value
		out.Value = &v
	}
	if l.AssignedTo != nil {
		a := *l.AssignedTo
		out.AssignedTo = &a
	}
	if l.LastContactedAt != nil {
		t := *l.LastContactedAt
		out.LastContactedAt = &t
	}
	return out
}

// OwnedBy reports whether the lead is assigned to userID.
func (l Lead) OwnedBy(userID int) bool {
	return l.AssignedTo != nil && *l.AssignedTo == userID
}

// LeadList is the payload of GET /leads.
type LeadList struct {
	Leads []Lead `json:"leads"`
	Total int    `json:"total"`
}
