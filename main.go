package main

import (
	"context"
	"net/http"

	"bantay/account"
	"bantay/bizerror"
	"bantay/client/es"
	"bantay/common"
	"bantay/domain"
	"bantay/domain/ledger"
	"bantay/domain/namespace"
	"bantay/domain/workflow"
	"bantay/event"
	"bantay/indices"
	"bantay/infra/tracing"
	"bantay/notification"
	"bantay/persistence"
	"bantay/servehttp"
	"bantay/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func main() {
	logrus.Infoln("service start")

	tracingCloser, err := tracing.Bootstrap()
	if err != nil {
		logrus.Fatalf("tracing bootstrap failed %v\n", err)
	}
	defer tracingCloser.Close()

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
	err = ds.GormDB(context.Background()).AutoMigrate(
		&domain.Project{}, &domain.Milestone{}, &domain.SubmissionRecord{},
		&event.EventRecord{}, &account.User{}).Error
	if err != nil {
		logrus.Fatalf("database migration failed %v\n", err)
	}

	es.ActiveESClient = es.CreateClientFromEnv()

	notification.ActiveDispatcher = &notification.LogDispatcher{}
	event.EventHandlers = append(event.EventHandlers,
		notification.NotifyOnTransition, indices.IndexOnTransition)

	engine := gin.Default()
	engine.Use(tracing.TracingIngress(), bizerror.ErrorHandling(),
		servehttp.RateLimitFilter(rate.Limit(50), 100))
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})

	secured := session.SimpleAuthFilter()
	namespace.RegisterProjectsRestAPI(engine, secured)
	ledger.RegisterMilestonesRestAPI(engine, secured)
	workflow.RegisterSubmissionsRestAPI(engine, secured)
	workflow.RegisterProgressRestAPI(engine, secured)
	indices.RegisterIndicesRestAPI(engine, secured)

	servehttp.StartHTTPServer(engine)
}
