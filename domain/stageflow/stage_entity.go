package stageflow

import (
	"github.com/fundwit/go-commons/types"
)

// ProjectStage is the storage identity of a stage. The canonical order and the
// active set come from the configured flow, not from SequenceOrder: a stage row
// whose name is absent from the flow is a legacy record kept for old references.
type ProjectStage struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name" gorm:"unique_index:uni_stage_name"`

	Description   string `json:"description"`
	SequenceOrder int    `json:"sequenceOrder"`
	IsActive      bool   `json:"isActive"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type StageDetail struct {
	ProjectStage
	RequiredFields []string `json:"requiredFields"`
}
