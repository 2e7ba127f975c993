package project

import (
	"fmt"
	"time"

	"pms/account"
	"pms/audit"
	"pms/bizerror"
	"pms/domain/approval"
	"pms/domain/stageflow"
	"pms/idgen"
	"pms/persistence"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

const projectCodePrefix = "BDG"
const codeGenerationAttempts = 3

var (
	projectIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateProjectFunc  = CreateProject
	UpdateProjectFunc  = UpdateProject
	DetailProjectFunc  = DetailProject
	QueryProjectsFunc  = QueryProjects
	ArchiveProjectFunc = ArchiveProject

	// IndexProjectsFunc pushes projects into the search index after a write.
	// Wired at startup, a no-op by default so the domain works without a
	// search backend.
	IndexProjectsFunc = func(projects ...Project) error { return nil }

	LoadProjectsFunc = LoadProjects
)

// LoadProjects page through all unarchived projects, for index synchronization.
func LoadProjects(page, size int) ([]Project, error) {
	projects := []Project{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where("is_archived = ?", false).Order("id ASC").
		Offset((page - 1) * size).Limit(size).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject register a project at the first stage of the flow. The project
// code is generated, the creator becomes the proponent member, and the
// approval run is seeded in the same transaction.
func CreateProject(creation *ProjectCreation, sec *session.Context) (*Project, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	firstStageName := stageflow.ActivePolicy.FirstStage()
	if violations := stageflow.ActivePolicy.MissingFieldsFor(firstStageName, creationFieldValues(creation)); len(violations) > 0 {
		return nil, &bizerror.ErrInvalidArguments{Violations: violations}
	}

	var record Project
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		firstStage, err := stageflow.FindStageByName(tx, firstStageName)
		if err != nil {
			return err
		}

		// a client may state the starting stage explicitly, but only the first one
		if !creation.CurrentStageID.IsZero() && creation.CurrentStageID != firstStage.ID {
			return &bizerror.ErrInvalidArguments{Violations: []bizerror.FieldViolation{{
				Field:   "current_stage_id",
				Message: fmt.Sprintf("New projects must start at %s stage.", firstStageName),
			}}}
		}

		now := types.CurrentTimestamp()
		record = Project{
			ID:            idgen.NextID(projectIdWorker),
			Title:         creation.Title,
			Description:   creation.Description,
			ProjectTypeID: creation.ProjectTypeID,
			IndustryID:    creation.IndustryID,
			SectorID:      creation.SectorID,

			ProposalDate:         creation.ProposalDate,
			StartDate:            creation.StartDate,
			TargetCompletionDate: creation.TargetCompletionDate,
			ActualCompletionDate: creation.ActualCompletionDate,

			EstimatedCost:   creation.EstimatedCost,
			Currency:        creation.Currency,
			LocationAddress: creation.LocationAddress,

			CurrentStageID: firstStage.ID,
			CreatedBy:      sec.Identity.ID,
			CreateTime:     now,
		}
		if err := createWithGeneratedCode(tx, &record); err != nil {
			return err
		}

		history := ProjectStageHistory{ID: idgen.NextID(projectIdWorker), ProjectID: record.ID,
			ToStageID: firstStage.ID, ChangedBy: sec.Identity.ID, Reason: "Project created", CreateTime: now}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		member := ProjectMember{ID: idgen.NextID(projectIdWorker), ProjectID: record.ID,
			UserID: sec.Identity.ID, Role: "proponent", CreateTime: now}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		if _, err := approval.InitiateFunc(tx, record.ID, record.ProjectTypeID, sec.Identity.ID); err != nil {
			return err
		}

		audit.RecordFunc(tx, "project", record.ID, "create", sec.Identity.ID,
			fmt.Sprintf("project %s created at stage %s", record.ProjectCode, firstStageName))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := IndexProjectsFunc(record); err != nil {
		logrus.StandardLogger().Warnf("failed to index project %v: %v", record.ID, err)
	}
	return &record, nil
}

// createWithGeneratedCode assign the next "BDG-<year>-<n>" code and insert.
// A concurrent creation can win the same sequence number, so a duplicate key
// answer regenerates and retries a bounded number of times.
func createWithGeneratedCode(tx *gorm.DB, record *Project) error {
	prefix := fmt.Sprintf("%s-%d-", projectCodePrefix, time.Now().Year())

	var lastErr error
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		var count int
		if err := tx.Model(&Project{}).Where("project_code LIKE ?", prefix+"%").Count(&count).Error; err != nil {
			return err
		}
		record.ProjectCode = fmt.Sprintf("%s%d", prefix, count+1+attempt)

		lastErr = tx.Create(record).Error
		if lastErr == nil {
			return nil
		}
		if !isDuplicateKeyError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func isDuplicateKeyError(err error) bool {
	if mysqlErr, ok := err.(*mysql.MySQLError); ok {
		return mysqlErr.Number == 1062
	}
	return false
}

// UpdateProject merge the submitted fields over the stored project and apply
// the stage flow policy: a stage move must target the next stage (or stay), a
// moved stage needs a change reason, and the merged field set must satisfy the
// target stage's required fields. All violations are collected and reported in
// one answer.
//
// The submitted map distinguishes omitted fields from fields explicitly sent,
// only sent fields are written.
func UpdateProject(id types.ID, updating *ProjectUpdating, submitted map[string]interface{}, sec *session.Context) (*Project, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	var record Project
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&Project{ID: id}).First(&record).Error; err != nil {
			return err
		}

		fromStage, err := stageflow.ResolveStage(tx, record.CurrentStageID)
		if err != nil {
			return err
		}
		toStage := fromStage
		if _, sent := submitted["current_stage_id"]; sent && !updating.CurrentStageID.IsZero() &&
			updating.CurrentStageID != record.CurrentStageID {
			if toStage, err = stageflow.ResolveStage(tx, updating.CurrentStageID); err != nil {
				return err
			}
		}
		stageChanged := toStage.ID != fromStage.ID

		policy := stageflow.ActivePolicy
		violations := policy.CheckTransition(fromStage.Name, toStage.Name)
		if policy.RequireReasonForAdvance(fromStage.Name, toStage.Name) && stageChanged &&
			updating.StageChangeReason == "" {
			violations = append(violations, bizerror.FieldViolation{
				Field: "stage_change_reason", Message: "A reason is required when the project stage changes."})
		}
		merged := stageflow.MergeValues(submittedFieldValues(submitted), record.FieldValues())
		violations = append(violations, policy.MissingFieldsFor(toStage.Name, merged)...)
		if len(violations) > 0 {
			return &bizerror.ErrInvalidArguments{Violations: violations}
		}

		changes := buildChanges(updating, submitted)
		if stageChanged {
			changes["current_stage_id"] = toStage.ID
		}
		if len(changes) > 0 {
			if err := tx.Model(&Project{}).Where(&Project{ID: id}).Updates(changes).Error; err != nil {
				return err
			}
		}

		if stageChanged {
			history := ProjectStageHistory{ID: idgen.NextID(projectIdWorker), ProjectID: id,
				FromStageID: fromStage.ID, ToStageID: toStage.ID, ChangedBy: sec.Identity.ID,
				Reason: updating.StageChangeReason, CreateTime: types.CurrentTimestamp()}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
			if policy.IsClosingStage(toStage.Name) {
				if err := approval.CompleteLatestApprovedOfProject(tx, id); err != nil {
					return err
				}
			}
		}

		audit.RecordFunc(tx, "project", id, "update", sec.Identity.ID,
			fmt.Sprintf("stage %s -> %s", fromStage.Name, toStage.Name))
		return tx.Where(&Project{ID: id}).First(&record).Error
	})
	if err != nil {
		return nil, err
	}

	if err := IndexProjectsFunc(record); err != nil {
		logrus.StandardLogger().Warnf("failed to index project %v: %v", record.ID, err)
	}
	return &record, nil
}

func DetailProject(id types.ID, sec *session.Context) (*Project, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	record := Project{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where(&Project{ID: id}).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryProjects(query *ProjectQuery, sec *session.Context) ([]Project, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	projects := []Project{}
	db := persistence.ActiveDataSourceManager.GormDB()
	q := db.Model(&Project{})
	if query != nil {
		if !query.StageID.IsZero() {
			q = q.Where("current_stage_id = ?", query.StageID)
		}
		if !query.IncludeArchived {
			q = q.Where("is_archived = ?", false)
		}
	}
	if err := q.Order("id ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ArchiveProject soft deletion, archived projects drop out of default queries
// and the search index.
func ArchiveProject(id types.ID, sec *session.Context) error {
	if sec == nil {
		return bizerror.ErrUnauthenticated
	}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		record := Project{}
		if err := tx.Where(&Project{ID: id}).First(&record).Error; err != nil {
			return err
		}
		if record.CreatedBy != sec.Identity.ID && !sec.Perms.HasRole("system:admin") {
			return bizerror.ErrForbidden
		}
		if err := tx.Model(&Project{}).Where(&Project{ID: id}).
			Update("is_archived", true).Error; err != nil {
			return err
		}
		audit.RecordFunc(tx, "project", id, "archive", sec.Identity.ID, "")
		return nil
	})
	return err
}

func ListStageHistory(projectId types.ID, sec *session.Context) ([]ProjectStageHistory, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	histories := []ProjectStageHistory{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where(&ProjectStageHistory{ProjectID: projectId}).
		Order("create_time ASC").Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}

func ListMembers(projectId types.ID, sec *session.Context) ([]ProjectMemberDetail, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	members := []ProjectMember{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where(&ProjectMember{ProjectID: projectId}).
		Order("create_time ASC").Find(&members).Error; err != nil {
		return nil, err
	}

	userIds := make([]types.ID, 0, len(members))
	for _, m := range members {
		userIds = append(userIds, m.UserID)
	}
	names, err := account.QueryAccountNames(userIds)
	if err != nil {
		return nil, err
	}

	details := make([]ProjectMemberDetail, 0, len(members))
	for _, m := range members {
		details = append(details, ProjectMemberDetail{ProjectMember: m, UserName: names[m.UserID]})
	}
	return details, nil
}

func creationFieldValues(c *ProjectCreation) stageflow.FieldValues {
	return stageflow.FieldValues{
		"title":                  c.Title,
		"description":            c.Description,
		"project_type_id":        c.ProjectTypeID,
		"industry_id":            c.IndustryID,
		"sector_id":              c.SectorID,
		"proposal_date":          c.ProposalDate,
		"start_date":             c.StartDate,
		"target_completion_date": c.TargetCompletionDate,
		"actual_completion_date": c.ActualCompletionDate,
		"estimated_cost":         c.EstimatedCost,
		"currency":               c.Currency,
		"location_address":       c.LocationAddress,
	}
}

// submittedFieldValues keeps only the keys the stage flow cares about, with
// the raw submitted values: an explicit null must shadow the stored value.
func submittedFieldValues(submitted map[string]interface{}) stageflow.FieldValues {
	values := stageflow.FieldValues{}
	for _, field := range fieldColumns {
		if v, sent := submitted[field]; sent {
			values[field] = v
		}
	}
	return values
}

var fieldColumns = []string{
	"title", "description", "project_type_id", "industry_id", "sector_id",
	"proposal_date", "start_date", "target_completion_date", "actual_completion_date",
	"estimated_cost", "currency", "location_address",
}

// buildChanges maps the sent fields to column updates, taking the parsed
// values from the typed body.
func buildChanges(updating *ProjectUpdating, submitted map[string]interface{}) map[string]interface{} {
	parsed := map[string]interface{}{
		"title":                  updating.Title,
		"description":            updating.Description,
		"project_type_id":        updating.ProjectTypeID,
		"industry_id":            updating.IndustryID,
		"sector_id":              updating.SectorID,
		"proposal_date":          updating.ProposalDate,
		"start_date":             updating.StartDate,
		"target_completion_date": updating.TargetCompletionDate,
		"actual_completion_date": updating.ActualCompletionDate,
		"estimated_cost":         updating.EstimatedCost,
		"currency":               updating.Currency,
		"location_address":       updating.LocationAddress,
	}
	changes := map[string]interface{}{}
	for _, field := range fieldColumns {
		if _, sent := submitted[field]; sent {
			changes[field] = parsed[field]
		}
	}
	return changes
}
