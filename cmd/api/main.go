package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/workforcehq/workforce-backend-go/internal/config"
	appHTTP "github.com/workforcehq/workforce-backend-go/internal/handler/http"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/cron"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/database"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/jwt"
	"github.com/workforcehq/workforce-backend-go/internal/repository/postgresql"
	compensationService "github.com/workforcehq/workforce-backend-go/internal/service/compensation"
	"github.com/workforcehq/workforce-backend-go/internal/service/deadline"
	fineService "github.com/workforcehq/workforce-backend-go/internal/service/fine"
	taskService "github.com/workforcehq/workforce-backend-go/internal/service/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	txManager := postgresql.NewTxManager(db)
	taskRepo := postgresql.NewTaskRepository(db)
	completionRepo := postgresql.NewTaskCompletionRepository(db)
	subtaskRepo := postgresql.NewSubtaskRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	projectRepo := postgresql.NewProjectRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	fineRepo := postgresql.NewCustomFineRepository(db)
	fineRecordRepo := postgresql.NewCustomFineRecordRepository(db)
	bonusFineRepo := postgresql.NewBonusFineRecordRepository(db)
	ledgerRepo := postgresql.NewLedgerRepository(db)
	engagementRepo := postgresql.NewEngagementRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	evaluator := deadline.NewEvaluator()

	taskSvc := taskService.NewTaskService(taskRepo, completionRepo, subtaskRepo, projectRepo, evaluator)
	fineSvc := fineService.NewFineService(txManager, fineRepo, fineRecordRepo, employeeRepo, projectRepo, ledgerRepo, bonusFineRepo)
	compensationSvc := compensationService.NewCompensationService(
		employeeRepo,
		projectRepo,
		attendanceRepo,
		engagementRepo,
		fineRecordRepo,
		ledgerRepo,
		bonusFineRepo,
		fineSvc,
	)

	taskHandler := appHTTP.NewTaskHandler(taskSvc)
	fineHandler := appHTTP.NewFineHandler(fineSvc)
	compensationHandler := appHTTP.NewCompensationHandler(compensationSvc)

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler()
		if err := cron.RegisterEngineJobs(scheduler, cfg.Cron, taskSvc, fineSvc); err != nil {
			log.Fatal("Failed to register cron jobs: ", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := appHTTP.NewRouter(cfg, JWTService, taskHandler, fineHandler, compensationHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
