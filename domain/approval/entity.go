package approval

import (
	"github.com/fundwit/go-commons/types"
)

const (
	StatusPending                = "pending"
	StatusForEvaluation          = "for_evaluation"
	StatusForApproval            = "for_approval"
	StatusApproved               = "approved"
	StatusApprovedWithConditions = "approved_with_conditions"
	StatusCompleted              = "completed"

	// StatusRejected never occurs in the live flow: rejecting is a return to
	// step one. The constant only supports querying historical records.
	StatusRejected = "rejected"

	// StatusReturned is a step record decision, not an overall status.
	StatusReturned = "returned"
)

// DefaultWorkflowName identifies the organization's standard sequential flow.
const DefaultWorkflowName = "SOI Sequential Approval"

const proponentSubmissionComment = "Project submitted by proponent."

// ApprovalWorkflow is a named, ordered template of approval steps.
// ProjectTypeID zero means the definition applies to every project type.
type ApprovalWorkflow struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name" gorm:"unique_index:uni_workflow_name"`

	Description   string   `json:"description"`
	ProjectTypeID types.ID `json:"projectTypeId"`
	IsActive      bool     `json:"isActive"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

// ApprovalStep is one role-gated checkpoint of a workflow. StepOrder values
// within a workflow are strictly increasing, dense or sparse.
type ApprovalStep struct {
	ID         types.ID `json:"id"`
	WorkflowID types.ID `json:"workflowId" gorm:"unique_index:uni_workflow_step_order"`
	StepOrder  int      `json:"stepOrder" gorm:"unique_index:uni_workflow_step_order"`

	RoleID   types.ID `json:"roleId"`
	StepName string   `json:"stepName"`

	// reserved for future branching, not load-bearing in the current flow
	IsRequired bool `json:"isRequired"`
	CanSkip    bool `json:"canSkip"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

// ProjectApproval is the live workflow instance of one project.
// CurrentStepID zero means the run is finished.
type ProjectApproval struct {
	ID        types.ID `json:"id"`
	ProjectID types.ID `json:"projectId" gorm:"unique_index:uni_approval_project"`

	WorkflowID    types.ID `json:"workflowId"`
	CurrentStepID types.ID `json:"currentStepId"`
	OverallStatus string   `json:"overallStatus"`

	StartedAt   types.Timestamp  `json:"startedAt" sql:"type:DATETIME(6) NOT NULL"`
	CompletedAt *types.Timestamp `json:"completedAt" sql:"type:DATETIME(6)"`
}

// ApprovalStepRecord is the latest decision at one step within one run,
// upserted by (approval, step): re-deciding a step overwrites its record.
type ApprovalStepRecord struct {
	ID                types.ID `json:"id"`
	ProjectApprovalID types.ID `json:"projectApprovalId" gorm:"unique_index:uni_approval_step"`
	StepID            types.ID `json:"stepId" gorm:"unique_index:uni_approval_step"`

	ApproverID types.ID `json:"approverId"`
	Status     string   `json:"status"`
	Comments   string   `json:"comments"`
	Conditions string   `json:"conditions"`

	SubmittedAt *types.Timestamp `json:"submittedAt" sql:"type:DATETIME(6)"`
	ReviewedAt  *types.Timestamp `json:"reviewedAt" sql:"type:DATETIME(6)"`
}

type ApprovalDecision struct {
	Status     string `json:"status" binding:"required,oneof=approved approved_with_conditions"`
	Comments   string `json:"comments"`
	Conditions string `json:"conditions"`
}

type ApprovalReturning struct {
	Comments string `json:"comments" binding:"required"`
}

type ApprovalQuery struct {
	Status string `json:"status" form:"status"`
}
