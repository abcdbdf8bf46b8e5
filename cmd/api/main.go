package main

import (
	"context"
	"fmt"
	"log"

	common_api "go-paygate/internal/common/api"
	"go-paygate/internal/config"
	"go-paygate/internal/connectors"
	"go-paygate/internal/database"
	emails "go-paygate/internal/email"
	"go-paygate/internal/features/audit"
	"go-paygate/internal/features/auth"
	"go-paygate/internal/features/automation"
	"go-paygate/internal/features/dispute"
	"go-paygate/internal/features/kyc"
	"go-paygate/internal/features/merchant"
	"go-paygate/internal/features/notification"
	"go-paygate/internal/features/role"
	"go-paygate/internal/features/settlement"
	"go-paygate/internal/features/system"
	"go-paygate/internal/features/transaction"
	"go-paygate/internal/features/user"
	"go-paygate/internal/features/workflow"
	"go-paygate/internal/logger"
	"go-paygate/internal/middleware"
	"go-paygate/pkg/utils"

	_ "go-paygate/docs" // swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the "routes" group and calls Setup on each.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d route groups\n", len(routes))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down on exit
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// @title           Payment Gateway Back Office API
// @version         1.0
// @description     Back-office platform with dual-control approval workflows for payment operations.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,

			// Repositories
			audit.NewAuditRepository,
			user.NewUserRepository,
			role.NewRoleRepository,
			notification.NewNotificationRepository,
			merchant.NewMerchantRepository,
			transaction.NewTransactionRepository,
			dispute.NewDisputeRepository,
			kyc.NewKYCRepository,
			settlement.NewSettlementRepository,

			// Workflow engine
			workflow.NewRegistry,
			workflow.NewRuleStore,
			workflow.NewRequestStore,
			func(cfg *config.Config, zlog *zap.Logger) *workflow.ReplayPool {
				return workflow.NewReplayPool(cfg.ReplayWorkers, zlog)
			},
			workflow.NewEngine,
			workflow.NewService,
			workflow.NewReconciler,
			automation.NewHookRunner,
			connectors.NewReportingWarehouse,

			// Services
			audit.NewAuditService,
			audit.NewWorkflowSink,
			role.NewRoleService,
			user.NewUserService,
			auth.NewAuthService,
			notification.NewHub,
			emails.SMTPFromConfig,
			notification.NewNotificationService,
			merchant.NewMerchantService,
			transaction.NewTransactionService,
			dispute.NewDisputeService,
			kyc.NewKYCService,
			settlement.NewSettlementService,

			// Interface adapters
			func(ws *audit.WorkflowSink, wh *connectors.ReportingWarehouse) workflow.AuditSink {
				return connectors.NewFanoutSink(ws, wh)
			},
			func(s notification.NotificationService) workflow.NotificationSink { return s },
			func(r *automation.HookRunner) workflow.HookRunner { return r },
			func(r user.UserRepository) notification.EmailFinder { return r },
			func(r merchant.MerchantRepository) kyc.MerchantStatusWriter { return r },

			// Controllers
			auth.NewAuthController,
			user.NewUserController,
			role.NewRoleController,
			audit.NewAuditController,
			notification.NewNotificationController,
			workflow.NewController,
			merchant.NewMerchantController,
			transaction.NewTransactionController,
			dispute.NewDisputeController,
			kyc.NewKYCController,
			settlement.NewSettlementController,

			// API routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(role.NewRoleApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(workflow.NewApi),
			AsRoute(merchant.NewMerchantApi),
			AsRoute(transaction.NewTransactionApi),
			AsRoute(dispute.NewDisputeApi),
			AsRoute(kyc.NewKYCApi),
			AsRoute(settlement.NewSettlementApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewHealthApi),
		),
		fx.WithLogger(func(zlog *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zlog}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, pool *workflow.ReplayPool) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						pool.Start()
						return nil
					},
					OnStop: func(ctx context.Context) error {
						pool.Stop()
						return nil
					},
				})
			},
			func(lc fx.Lifecycle, rec *workflow.Reconciler) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return rec.Start()
					},
					OnStop: func(ctx context.Context) error {
						rec.Stop()
						return nil
					},
				})
			},
			func(lc fx.Lifecycle, wh *connectors.ReportingWarehouse) {
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						return wh.Close()
					},
				})
			},
		),
	)

	app.Run()
}
