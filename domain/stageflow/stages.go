package stageflow

import (
	"pms/bizerror"
	"pms/idgen"
	"pms/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	stageIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryStagesFunc = QueryStages
)

// EnsureStages seed one row per configured stage and deactivate rows whose
// name left the flow, so legacy stages stop being valid transition targets.
func EnsureStages(tx *gorm.DB) error {
	for idx, name := range ActivePolicy.Stages() {
		stage := ProjectStage{}
		err := tx.Where(&ProjectStage{Name: name}).First(&stage).Error
		if err == gorm.ErrRecordNotFound {
			stage = ProjectStage{ID: idgen.NextID(stageIdWorker), Name: name,
				SequenceOrder: idx + 1, IsActive: true, CreateTime: types.CurrentTimestamp()}
			if err := tx.Create(&stage).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if !stage.IsActive || stage.SequenceOrder != idx+1 {
			if err := tx.Model(&ProjectStage{}).Where(&ProjectStage{ID: stage.ID}).
				Updates(map[string]interface{}{"is_active": true, "sequence_order": idx + 1}).Error; err != nil {
				return err
			}
		}
	}

	return tx.Model(&ProjectStage{}).Where("name NOT IN (?)", ActivePolicy.Stages()).
		Update("is_active", false).Error
}

// ResolveStage load a stage row and reject names outside the configured flow.
func ResolveStage(tx *gorm.DB, id types.ID) (*ProjectStage, error) {
	stage := ProjectStage{}
	if err := tx.Where(&ProjectStage{ID: id}).First(&stage).Error; err != nil {
		return nil, err
	}
	if _, found := ActivePolicy.StageIndex(stage.Name); !found {
		return nil, &bizerror.ErrUnknownStage{Stage: stage.Name}
	}
	return &stage, nil
}

func FindStageByName(tx *gorm.DB, name string) (*ProjectStage, error) {
	stage := ProjectStage{}
	if err := tx.Where(&ProjectStage{Name: name}).First(&stage).Error; err != nil {
		return nil, err
	}
	return &stage, nil
}

func QueryStages() ([]StageDetail, error) {
	var stages []ProjectStage
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where(&ProjectStage{IsActive: true}).Order("sequence_order ASC").Find(&stages).Error; err != nil {
		return nil, err
	}

	details := make([]StageDetail, 0, len(stages))
	for _, s := range stages {
		details = append(details, StageDetail{ProjectStage: s,
			RequiredFields: ActivePolicy.config.RequiredFields[s.Name]})
	}
	return details, nil
}
