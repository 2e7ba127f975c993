package approval

import (
	"pms/account"
	"pms/idgen"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// ResolveWorkflowFor picks the workflow definition governing a project type:
// the active default flow when present, else an active definition scoped to
// the type (a type-specific match beats a catch-all), else nil.
func ResolveWorkflowFor(tx *gorm.DB, projectTypeId types.ID) (*ApprovalWorkflow, error) {
	workflow := ApprovalWorkflow{}
	err := tx.Where("is_active = ? AND name = ?", true, DefaultWorkflowName).First(&workflow).Error
	if err == nil {
		return &workflow, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	err = tx.Where("is_active = ? AND (project_type_id = ? OR project_type_id = 0)", true, projectTypeId).
		Order("project_type_id = 0 ASC").First(&workflow).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

func ListSteps(tx *gorm.DB, workflowId types.ID) ([]ApprovalStep, error) {
	var steps []ApprovalStep
	if err := tx.Where(&ApprovalStep{WorkflowID: workflowId}).Order("step_order ASC").Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

// nextStepAfter the step with the smallest step_order strictly greater than the given order.
func nextStepAfter(tx *gorm.DB, workflowId types.ID, order int) (*ApprovalStep, error) {
	step := ApprovalStep{}
	err := tx.Where("workflow_id = ? AND step_order > ?", workflowId, order).
		Order("step_order ASC").First(&step).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func firstStepOf(tx *gorm.DB, workflowId types.ID) (*ApprovalStep, error) {
	step := ApprovalStep{}
	err := tx.Where(&ApprovalStep{WorkflowID: workflowId}).Order("step_order ASC").First(&step).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// SeedDefaultWorkflow install the standard sequential flow and its roles,
// keeping it as the single active default. Idempotent.
func SeedDefaultWorkflow(tx *gorm.DB) error {
	requiredRoles := []struct {
		name        string
		description string
	}{
		{"Proponent", "Project proponent / originator"},
		{"Project Officer", "Manages assigned projects"},
		{"Workgroup Head", "Heads a workgroup"},
		{"ManCom", "Management Committee member"},
		{"Board", "Board member"},
	}

	roleIds := map[string]types.ID{}
	for _, r := range requiredRoles {
		role, err := account.EnsureRole(tx, r.name, r.description)
		if err != nil {
			return err
		}
		roleIds[r.name] = role.ID
	}

	workflow := ApprovalWorkflow{}
	err := tx.Where(&ApprovalWorkflow{Name: DefaultWorkflowName}).First(&workflow).Error
	if err == gorm.ErrRecordNotFound {
		workflow = ApprovalWorkflow{ID: idgen.NextID(approvalIdWorker), Name: DefaultWorkflowName,
			Description: "Sequential routing: Proponent -> Project Officer -> Workgroup Head -> ManCom -> Board",
			IsActive:    true, CreateTime: types.CurrentTimestamp()}
		if err := tx.Create(&workflow).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	} else if !workflow.IsActive {
		if err := tx.Model(&ApprovalWorkflow{}).Where(&ApprovalWorkflow{ID: workflow.ID}).
			Update("is_active", true).Error; err != nil {
			return err
		}
	}

	steps := []struct {
		order    int
		roleName string
		stepName string
	}{
		{1, "Proponent", "Proponent Submission"},
		{2, "Project Officer", "Project Officer Evaluation"},
		{3, "Workgroup Head", "Workgroup Head Approval"},
		{4, "ManCom", "ManCom Approval"},
		{5, "Board", "Board Approval"},
	}

	for _, s := range steps {
		step := ApprovalStep{}
		err := tx.Where(&ApprovalStep{WorkflowID: workflow.ID, StepOrder: s.order}).First(&step).Error
		if err == gorm.ErrRecordNotFound {
			step = ApprovalStep{ID: idgen.NextID(approvalIdWorker), WorkflowID: workflow.ID, StepOrder: s.order,
				RoleID: roleIds[s.roleName], StepName: s.stepName, IsRequired: true, CanSkip: false,
				CreateTime: types.CurrentTimestamp()}
			if err := tx.Create(&step).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}

	// keep the default flow as the single active definition
	return tx.Model(&ApprovalWorkflow{}).Where("name <> ?", DefaultWorkflowName).
		Update("is_active", false).Error
}
