package bizerror

import (
	"errors"
	"fmt"
	"net/http"

	"pms/common"

	"github.com/fundwit/go-commons/types"
)

var ErrUnauthenticated = errors.New("unauthenticated")
var ErrForbidden = errors.New("forbidden")
var ErrInvalidPassword = errors.New("invalid password")

var ErrNoCurrentStep = errors.New("approval has no current step")
var ErrWorkflowHasNoSteps = errors.New("approval workflow has no steps")
var ErrNotApprovedYet = errors.New("only approved workflows can be marked completed")

type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrInvalidArguments carries every violation found in one request.
type ErrInvalidArguments struct {
	Violations []FieldViolation
}

func (e *ErrInvalidArguments) Error() string {
	return fmt.Sprintf("invalid arguments: %d violations", len(e.Violations))
}

func (e *ErrInvalidArguments) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusUnprocessableEntity,
		Code: "common.invalid_arguments", Message: "validation failed", Data: e.Violations}
}

// ErrWrongApprover reports which actor the current step is waiting for.
type ErrWrongApprover struct {
	ProponentOnly  bool
	RequiredRoleID types.ID
}

func (e *ErrWrongApprover) Error() string {
	if e.ProponentOnly {
		return "only the project proponent can process this step"
	}
	return fmt.Sprintf("current approval step is assigned to role %s", e.RequiredRoleID)
}

func (e *ErrWrongApprover) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusForbidden,
		Code: "approval.wrong_approver", Message: e.Error(), Data: e}
}

// ErrUnknownStage marks a stage name that is absent from the configured flow.
type ErrUnknownStage struct {
	Stage string
}

func (e *ErrUnknownStage) Error() string {
	return fmt.Sprintf("stage %q is not part of the configured stage flow", e.Stage)
}

func (e *ErrUnknownStage) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusInternalServerError,
		Code: "stageflow.unknown_stage", Message: e.Error(), Data: e.Stage}
}
