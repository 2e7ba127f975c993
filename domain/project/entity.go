package project

import (
	"pms/domain/stageflow"

	"github.com/fundwit/go-commons/types"
)

// Project field json names match the configured stage field names, so a
// request body can be checked against the stage flow policy without renaming.
type Project struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Title       string `json:"title"`
	Description string `json:"description"`

	ProjectTypeID types.ID `json:"project_type_id"`
	IndustryID    types.ID `json:"industry_id"`
	SectorID      types.ID `json:"sector_id"`

	ProposalDate         *types.Timestamp `json:"proposal_date" sql:"type:DATETIME(6)"`
	StartDate            *types.Timestamp `json:"start_date" sql:"type:DATETIME(6)"`
	TargetCompletionDate *types.Timestamp `json:"target_completion_date" sql:"type:DATETIME(6)"`
	ActualCompletionDate *types.Timestamp `json:"actual_completion_date" sql:"type:DATETIME(6)"`

	EstimatedCost   float64 `json:"estimated_cost"`
	Currency        string  `json:"currency"`
	LocationAddress string  `json:"location_address"`

	ProjectCode    string   `json:"project_code" gorm:"unique_index:uni_project_code"`
	CurrentStageID types.ID `json:"current_stage_id"`

	CreatedBy  types.ID        `json:"created_by"`
	IsArchived bool            `json:"is_archived"`
	CreateTime types.Timestamp `json:"create_time" sql:"type:DATETIME(6) NOT NULL"`
}

// FieldValues the stored candidate values of this project for required-field
// checks, keyed by configured field name.
func (p *Project) FieldValues() stageflow.FieldValues {
	return stageflow.FieldValues{
		"title":                  p.Title,
		"description":            p.Description,
		"project_type_id":        p.ProjectTypeID,
		"industry_id":            p.IndustryID,
		"sector_id":              p.SectorID,
		"proposal_date":          p.ProposalDate,
		"start_date":             p.StartDate,
		"target_completion_date": p.TargetCompletionDate,
		"actual_completion_date": p.ActualCompletionDate,
		"estimated_cost":         p.EstimatedCost,
		"currency":               p.Currency,
		"location_address":       p.LocationAddress,
	}
}

type ProjectStageHistory struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"project_id"`

	FromStageID types.ID `json:"from_stage_id"`
	ToStageID   types.ID `json:"to_stage_id"`
	ChangedBy   types.ID `json:"changed_by"`
	Reason      string   `json:"reason"`

	CreateTime types.Timestamp `json:"create_time" sql:"type:DATETIME(6) NOT NULL"`
}

type ProjectMember struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"project_id" gorm:"unique_index:uni_project_user"`
	UserID    types.ID `json:"user_id" gorm:"unique_index:uni_project_user"`
	Role      string   `json:"role"`

	CreateTime types.Timestamp `json:"create_time" sql:"type:DATETIME(6) NOT NULL"`
}

type ProjectMemberDetail struct {
	ProjectMember
	UserName string `json:"user_name"`
}

type ProjectCreation struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`

	ProjectTypeID types.ID `json:"project_type_id"`
	IndustryID    types.ID `json:"industry_id"`
	SectorID      types.ID `json:"sector_id"`

	ProposalDate         *types.Timestamp `json:"proposal_date"`
	StartDate            *types.Timestamp `json:"start_date"`
	TargetCompletionDate *types.Timestamp `json:"target_completion_date"`
	ActualCompletionDate *types.Timestamp `json:"actual_completion_date"`

	EstimatedCost   float64 `json:"estimated_cost"`
	Currency        string  `json:"currency"`
	LocationAddress string  `json:"location_address"`

	CurrentStageID types.ID `json:"current_stage_id"`
}

type ProjectUpdating struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	ProjectTypeID types.ID `json:"project_type_id"`
	IndustryID    types.ID `json:"industry_id"`
	SectorID      types.ID `json:"sector_id"`

	ProposalDate         *types.Timestamp `json:"proposal_date"`
	StartDate            *types.Timestamp `json:"start_date"`
	TargetCompletionDate *types.Timestamp `json:"target_completion_date"`
	ActualCompletionDate *types.Timestamp `json:"actual_completion_date"`

	EstimatedCost   float64 `json:"estimated_cost"`
	Currency        string  `json:"currency"`
	LocationAddress string  `json:"location_address"`

	CurrentStageID    types.ID `json:"current_stage_id"`
	StageChangeReason string   `json:"stage_change_reason"`
}

type ProjectQuery struct {
	StageID         types.ID `form:"stageId"`
	IncludeArchived bool     `form:"includeArchived"`
}
