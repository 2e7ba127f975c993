package approval

import (
	"fmt"
	"strings"

	"pms/audit"
	"pms/bizerror"
	"pms/idgen"
	"pms/notification"
	"pms/persistence"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	approvalIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	InitiateFunc          = Initiate
	ApproveFunc           = Approve
	ReturnForRevisionFunc = ReturnForRevision
	CompleteFunc          = Complete
	BootstrapStatusFunc   = BootstrapStatus

	QueryApprovalsFunc        = QueryApprovals
	QueryPendingApprovalsFunc = QueryPendingApprovals
	ListStepRecordsFunc       = ListStepRecords

	// ProjectCreatorFunc resolves the creator of a project for the proponent
	// check on step one.
	ProjectCreatorFunc = projectCreator
)

// DeriveStatus the overall status is always recomputed from the current step
// position, never stored independently (completed excepted).
func DeriveStatus(stepOrder int) string {
	if stepOrder <= 1 {
		return StatusPending
	}
	if stepOrder == 2 {
		return StatusForEvaluation
	}
	return StatusForApproval
}

// Initiate seed the approval run of a freshly created project inside the
// caller's transaction. A missing workflow definition or an empty step list is
// a soft miss: the project is created without an approval run.
//
// The run starts at the SECOND step when one exists, and the first step is
// immediately recorded as approved by the proponent: submitting the project is
// the proponent's own sign-off.
func Initiate(tx *gorm.DB, projectId, projectTypeId, proponentUserId types.ID) (*ProjectApproval, error) {
	workflow, err := ResolveWorkflowFor(tx, projectTypeId)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, nil
	}

	steps, err := ListSteps(tx, workflow.ID)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, nil
	}

	firstStep := steps[0]
	currentStep := firstStep
	if len(steps) > 1 {
		currentStep = steps[1]
	}

	now := types.CurrentTimestamp()
	approval := ProjectApproval{}
	err = tx.Where(&ProjectApproval{ProjectID: projectId}).First(&approval).Error
	if err == gorm.ErrRecordNotFound {
		approval = ProjectApproval{ID: idgen.NextID(approvalIdWorker), ProjectID: projectId,
			WorkflowID: workflow.ID, CurrentStepID: currentStep.ID,
			OverallStatus: DeriveStatus(currentStep.StepOrder), StartedAt: now}
		if err := tx.Create(&approval).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		if err := tx.Model(&ProjectApproval{}).Where(&ProjectApproval{ID: approval.ID}).
			Updates(map[string]interface{}{
				"workflow_id":     workflow.ID,
				"current_step_id": currentStep.ID,
				"overall_status":  DeriveStatus(currentStep.StepOrder),
				"started_at":      now,
				"completed_at":    nil,
			}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where(&ProjectApproval{ID: approval.ID}).First(&approval).Error; err != nil {
			return nil, err
		}
	}

	if err := upsertStepRecord(tx, approval.ID, firstStep.ID, map[string]interface{}{
		"approver_id":  proponentUserId,
		"status":       StatusApproved,
		"comments":     proponentSubmissionComment,
		"conditions":   "",
		"submitted_at": now,
		"reviewed_at":  now,
	}); err != nil {
		return nil, err
	}

	return &approval, nil
}

// Approve record the acting user's decision at the current step and advance
// the run. All checks precede every write; the whole operation holds a row
// lock on the approval so racing approvers serialize.
func Approve(id types.ID, d *ApprovalDecision, sec *session.Context) (*ProjectApproval, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	if d.Status == StatusApprovedWithConditions && strings.TrimSpace(d.Conditions) == "" {
		return nil, &bizerror.ErrInvalidArguments{Violations: []bizerror.FieldViolation{
			{Field: "conditions", Message: "Please specify the conditions for approval."}}}
	}

	approval := ProjectApproval{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&ProjectApproval{ID: id}).First(&approval).Error; err != nil {
			return err
		}
		if approval.CurrentStepID.IsZero() {
			return bizerror.ErrNoCurrentStep
		}

		currentStep := ApprovalStep{}
		if err := tx.Where(&ApprovalStep{ID: approval.CurrentStepID}).First(&currentStep).Error; err != nil {
			return err
		}

		if currentStep.StepOrder == 1 {
			creatorId, err := ProjectCreatorFunc(tx, approval.ProjectID)
			if err != nil {
				return err
			}
			if creatorId != sec.Identity.ID {
				return &bizerror.ErrWrongApprover{ProponentOnly: true}
			}
		} else if currentStep.RoleID != sec.Identity.DefaultRoleID {
			return &bizerror.ErrWrongApprover{RequiredRoleID: currentStep.RoleID}
		}

		now := types.CurrentTimestamp()
		if err := upsertStepRecord(tx, approval.ID, currentStep.ID, map[string]interface{}{
			"approver_id":  sec.Identity.ID,
			"status":       d.Status,
			"comments":     d.Comments,
			"conditions":   d.Conditions,
			"submitted_at": now,
			"reviewed_at":  now,
		}); err != nil {
			return err
		}

		nextStep, err := nextStepAfter(tx, approval.WorkflowID, currentStep.StepOrder)
		if err != nil {
			return err
		}

		var updates map[string]interface{}
		if nextStep != nil {
			updates = map[string]interface{}{
				"current_step_id": nextStep.ID,
				"overall_status":  DeriveStatus(nextStep.StepOrder),
				"completed_at":    nil,
			}
		} else {
			finalStatus := StatusApproved
			if d.Status == StatusApprovedWithConditions {
				finalStatus = StatusApprovedWithConditions
			}
			updates = map[string]interface{}{
				"current_step_id": 0,
				"overall_status":  finalStatus,
				"completed_at":    now,
			}
		}
		if err := tx.Model(&ProjectApproval{}).Where(&ProjectApproval{ID: approval.ID}).
			Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where(&ProjectApproval{ID: approval.ID}).First(&approval).Error; err != nil {
			return err
		}

		if nextStep != nil {
			notifyStepActors(tx, &approval, nextStep,
				fmt.Sprintf("Project approval moved to step %q.", nextStep.StepName))
		}
		audit.RecordFunc(tx, "project_approval", approval.ID, "approve", sec.Identity.ID,
			fmt.Sprintf("step %q decided as %s", currentStep.StepName, d.Status))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// ReturnForRevision send the run back to the proponent: the active step gets a
// "returned" record and the run resets to the first step. A finished run is
// returnable too, it just has no active step to record against. This is the
// only way an approval regresses, and it is always a full reset.
func ReturnForRevision(id types.ID, r *ApprovalReturning, sec *session.Context) (*ProjectApproval, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	approval := ProjectApproval{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&ProjectApproval{ID: id}).First(&approval).Error; err != nil {
			return err
		}

		firstStep, err := firstStepOf(tx, approval.WorkflowID)
		if err != nil {
			return err
		}
		if firstStep == nil {
			return bizerror.ErrWorkflowHasNoSteps
		}

		now := types.CurrentTimestamp()
		if !approval.CurrentStepID.IsZero() {
			if err := upsertStepRecord(tx, approval.ID, approval.CurrentStepID, map[string]interface{}{
				"approver_id": sec.Identity.ID,
				"status":      StatusReturned,
				"comments":    r.Comments,
				"conditions":  "",
				"reviewed_at": now,
			}); err != nil {
				return err
			}
		}

		if err := tx.Model(&ProjectApproval{}).Where(&ProjectApproval{ID: approval.ID}).
			Updates(map[string]interface{}{
				"current_step_id": firstStep.ID,
				"overall_status":  StatusPending,
				"completed_at":    nil,
			}).Error; err != nil {
			return err
		}
		if err := tx.Where(&ProjectApproval{ID: approval.ID}).First(&approval).Error; err != nil {
			return err
		}

		creatorId, err := ProjectCreatorFunc(tx, approval.ProjectID)
		if err == nil && !creatorId.IsZero() {
			notification.CreateNotificationFunc(tx, creatorId, "approval_returned",
				fmt.Sprintf("Project approval was returned for revision: %s", r.Comments))
		}
		audit.RecordFunc(tx, "project_approval", approval.ID, "return_for_revision", sec.Identity.ID, r.Comments)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// Complete close an approved run, typically when the project reaches a
// terminal lifecycle stage.
func Complete(id types.ID, sec *session.Context) (*ProjectApproval, error) {
	approval := ProjectApproval{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		return completeInTx(tx, id, &approval)
	})
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func completeInTx(tx *gorm.DB, id types.ID, result *ProjectApproval) error {
	if err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where(&ProjectApproval{ID: id}).First(result).Error; err != nil {
		return err
	}
	if result.OverallStatus != StatusApproved && result.OverallStatus != StatusApprovedWithConditions {
		return bizerror.ErrNotApprovedYet
	}
	if err := tx.Model(&ProjectApproval{}).Where(&ProjectApproval{ID: id}).
		Updates(map[string]interface{}{
			"overall_status": StatusCompleted,
			"completed_at":   types.CurrentTimestamp(),
		}).Error; err != nil {
		return err
	}
	return tx.Where(&ProjectApproval{ID: id}).First(result).Error
}

// CompleteLatestApprovedOfProject close the project's most recent approved run.
// A project without such a run is a no-op, not an error.
func CompleteLatestApprovedOfProject(tx *gorm.DB, projectId types.ID) error {
	approval := ProjectApproval{}
	err := tx.Where("project_id = ? AND overall_status IN (?)", projectId,
		[]string{StatusApproved, StatusApprovedWithConditions}).
		Order("id DESC").First(&approval).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return completeInTx(tx, approval.ID, &ProjectApproval{})
}

// BootstrapStatus repair a legacy row: recompute the overall status purely from
// the current step's order. Idempotent.
func BootstrapStatus(id types.ID, sec *session.Context) (*ProjectApproval, error) {
	approval := ProjectApproval{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&ProjectApproval{ID: id}).First(&approval).Error; err != nil {
			return err
		}

		stepOrder := 0
		if !approval.CurrentStepID.IsZero() {
			step := ApprovalStep{}
			if err := tx.Where(&ApprovalStep{ID: approval.CurrentStepID}).First(&step).Error; err != nil {
				return err
			}
			stepOrder = step.StepOrder
		}

		if err := tx.Model(&ProjectApproval{}).Where(&ProjectApproval{ID: approval.ID}).
			Update("overall_status", DeriveStatus(stepOrder)).Error; err != nil {
			return err
		}
		return tx.Where(&ProjectApproval{ID: approval.ID}).First(&approval).Error
	})
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func upsertStepRecord(tx *gorm.DB, approvalId, stepId types.ID, values map[string]interface{}) error {
	record := ApprovalStepRecord{}
	err := tx.Where(&ApprovalStepRecord{ProjectApprovalID: approvalId, StepID: stepId}).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		values["id"] = idgen.NextID(approvalIdWorker)
		values["project_approval_id"] = approvalId
		values["step_id"] = stepId
		return tx.Model(&ApprovalStepRecord{}).Create(mapToRecord(values)).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&ApprovalStepRecord{}).Where(&ApprovalStepRecord{ID: record.ID}).Updates(values).Error
}

func mapToRecord(values map[string]interface{}) *ApprovalStepRecord {
	record := ApprovalStepRecord{
		ID:                values["id"].(types.ID),
		ProjectApprovalID: values["project_approval_id"].(types.ID),
		StepID:            values["step_id"].(types.ID),
	}
	if v, ok := values["approver_id"].(types.ID); ok {
		record.ApproverID = v
	}
	if v, ok := values["status"].(string); ok {
		record.Status = v
	}
	if v, ok := values["comments"].(string); ok {
		record.Comments = v
	}
	if v, ok := values["conditions"].(string); ok {
		record.Conditions = v
	}
	if v, ok := values["submitted_at"].(types.Timestamp); ok {
		record.SubmittedAt = &v
	}
	if v, ok := values["reviewed_at"].(types.Timestamp); ok {
		record.ReviewedAt = &v
	}
	return &record
}

func projectCreator(tx *gorm.DB, projectId types.ID) (types.ID, error) {
	var creatorId types.ID
	row := tx.Table("projects").Where("id = ?", projectId).Select("created_by").Row()
	if err := row.Scan(&creatorId); err != nil {
		return 0, err
	}
	return creatorId, nil
}

func notifyStepActors(tx *gorm.DB, approval *ProjectApproval, step *ApprovalStep, message string) {
	var userIds []types.ID
	if err := tx.Table("users").Where("default_role_id = ?", step.RoleID).
		Pluck("id", &userIds).Error; err != nil {
		return
	}
	for _, uid := range userIds {
		notification.CreateNotificationFunc(tx, uid, "approval_step_assigned", message)
	}
}

func QueryApprovals(query *ApprovalQuery, sec *session.Context) ([]ProjectApproval, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	approvals := []ProjectApproval{}
	db := persistence.ActiveDataSourceManager.GormDB()
	q := db.Model(&ProjectApproval{})
	if query != nil && query.Status != "" {
		q = q.Where("overall_status = ?", query.Status)
	}
	if err := q.Order("id ASC").Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

// QueryPendingApprovals runs waiting on the acting user: the current step is
// assigned to the user's role, or it is the proponent step of a project the
// user created.
func QueryPendingApprovals(sec *session.Context) ([]ProjectApproval, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	approvals := []ProjectApproval{}
	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Model(&ProjectApproval{}).
		Select("project_approvals.*").
		Joins("INNER JOIN approval_steps ON approval_steps.id = project_approvals.current_step_id").
		Joins("INNER JOIN projects ON projects.id = project_approvals.project_id").
		Where("project_approvals.overall_status IN (?)",
			[]string{StatusPending, StatusForEvaluation, StatusForApproval}).
		Where("approval_steps.role_id = ? OR (approval_steps.step_order = 1 AND projects.created_by = ?)",
			sec.Identity.DefaultRoleID, sec.Identity.ID).
		Order("project_approvals.id ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

func QueryApprovedApprovals(sec *session.Context) ([]ProjectApproval, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	approvals := []ProjectApproval{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where("overall_status IN (?)",
		[]string{StatusApproved, StatusApprovedWithConditions, StatusCompleted}).
		Order("id ASC").Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

// ListStepRecords the audit trail of one run, latest decision first.
func ListStepRecords(approvalId types.ID, sec *session.Context) ([]ApprovalStepRecord, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	records := []ApprovalStepRecord{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where(&ApprovalStepRecord{ProjectApprovalID: approvalId}).
		Order("reviewed_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
