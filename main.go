package main

import (
	"net/http"
	"os"

	"pms/account"
	"pms/audit"
	"pms/bizerror"
	"pms/client/s3"
	"pms/common"
	"pms/domain/approval"
	"pms/domain/document"
	"pms/domain/project"
	"pms/domain/stageflow"
	"pms/domain/task"
	"pms/es"
	"pms/indices"
	"pms/indices/search"
	"pms/infra/tracing"
	"pms/notification"
	"pms/persistence"
	"pms/servehttp"
	"pms/session"
	"pms/sessions"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Infoln("service start")

	tracingCloser, err := tracing.Bootstrap()
	if err != nil {
		logrus.Warnf("tracing disabled: %v\n", err)
	} else {
		defer tracingCloser.Close()
	}

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB().AutoMigrate(
		&account.User{}, &account.Role{},
		&stageflow.ProjectStage{},
		&project.Project{}, &project.ProjectStageHistory{}, &project.ProjectMember{},
		&approval.ApprovalWorkflow{}, &approval.ApprovalStep{},
		&approval.ProjectApproval{}, &approval.ApprovalStepRecord{},
		&task.Task{}, &document.Document{},
		&notification.Notification{}, &audit.AuditRecord{},
	).Error
	if err != nil {
		logrus.Fatalf("database migration failed %v\n", err)
	}

	if err := stageflow.Bootstrap(); err != nil {
		logrus.Fatalf("stage flow bootstrap failed %v\n", err)
	}

	err = ds.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := stageflow.EnsureStages(tx); err != nil {
			return err
		}
		if err := approval.SeedDefaultWorkflow(tx); err != nil {
			return err
		}
		adminSecret := os.Getenv("ADMIN_SECRET")
		if adminSecret == "" {
			adminSecret = "admin123"
		}
		return account.EnsureAdminUser(tx, adminSecret)
	})
	if err != nil {
		logrus.Fatalf("data seeding failed %v\n", err)
	}

	es.Bootstrap()
	s3.Bootstrap()
	project.IndexProjectsFunc = indices.IndexProjects

	engine := gin.New()
	engine.Use(gin.Recovery(), bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})

	sessions.RegisterSessionsRestAPI(engine)

	secured := session.SimpleAuthFilter()
	account.RegisterUsersRestAPI(engine, secured)
	stageflow.RegisterStagesRestAPI(engine, secured)
	project.RegisterProjectsRestAPI(engine, secured)
	approval.RegisterApprovalsRestAPI(engine, secured)
	task.RegisterTasksRestAPI(engine, secured)
	document.RegisterDocumentsRestAPI(engine, secured)
	notification.RegisterNotificationsRestAPI(engine, secured)
	audit.RegisterAuditRestAPI(engine, secured)
	indices.RegisterIndicesRestAPI(engine, secured)
	search.RegisterProjectSearchRestAPI(engine, secured)

	servehttp.StartHTTPServer(engine)
}
