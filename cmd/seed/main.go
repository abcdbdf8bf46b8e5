package main

import (
	"context"

	common_models "go-paygate/internal/common/models"
	"go-paygate/internal/config"
	"go-paygate/internal/database"
	"go-paygate/internal/features/role"
	"go-paygate/internal/features/user"
	"go-paygate/internal/features/workflow"
	"go-paygate/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var systemRoles = []role.Role{
	{
		Name:        "platform-admin",
		Description: "Full platform access including workflow bypass",
		Permissions: []string{"*"},
		IsSystem:    true,
	},
	{
		Name:        "ops-maker",
		Description: "Initiates guarded payment operations",
		Permissions: []string{
			"transactions:read", "transactions:refund:maker",
			"merchants:read", "merchants:profile:maker",
			"disputes:read", "disputes:create", "disputes:update", "disputes:resolve:maker",
			"kyc:read", "kyc:create", "kyc:update", "kyc:status:maker",
			"settlements:read",
			workflow.RequestReadPermission,
		},
		IsSystem: true,
	},
	{
		Name:        "ops-checker",
		Description: "Approves or declines guarded payment operations",
		Permissions: []string{
			"transactions:read", "transactions:refund:checker",
			"merchants:read", "merchants:profile:checker",
			"disputes:read", "disputes:resolve:checker",
			"kyc:read", "kyc:status:checker",
			"settlements:read", "settlements:export",
			workflow.RequestReadPermission,
			"audit:read",
		},
		IsSystem: true,
	},
	// Rule configuration stays dual-controlled: proposing and approving
	// rule changes are separate roles.
	{
		Name:        "rule-maker",
		Description: "Proposes approval rule configurations",
		Permissions: []string{
			workflow.RuleMakerPermission,
			workflow.RequestReadPermission,
			"audit:read",
		},
		IsSystem: true,
	},
	{
		Name:        "rule-checker",
		Description: "Approves or declines proposed approval rule configurations",
		Permissions: []string{
			workflow.RuleCheckerPermission,
			workflow.RequestReadPermission,
			"audit:read",
		},
		IsSystem: true,
	},
}

var defaultRefundRules = workflow.RuleConfig{
	Activity:                 "REFUND",
	Module:                   "TRANSACTION",
	Global:                   true,
	SupportsThresholdBanding: true,
	Rules: []workflow.Rule{
		{
			LowerBoundMinor:      0,
			UpperBoundMinor:      10_000,
			MinApprovalsRequired: 1,
			ApprovalBasedType:    workflow.BasedTypeRole,
			ApprovalFlowType:     workflow.FlowTypeRoleBased,
			Approvers:            []string{"ops-checker"},
		},
		{
			LowerBoundMinor:      10_001,
			UpperBoundMinor:      1_000_000,
			MinApprovalsRequired: 2,
			ApprovalBasedType:    workflow.BasedTypeRole,
			ApprovalFlowType:     workflow.FlowTypeRoleBased,
			Approvers:            []string{"ops-checker"},
		},
	},
}

// Seed provisions the system roles, the initial admin account and a
// default refund rule set so a fresh install is usable immediately.
func Seed(
	lc fx.Lifecycle,
	cfg *config.Config,
	roleRepo role.RoleRepository,
	userRepo user.UserRepository,
	ruleStore workflow.RuleStore,
	zlog *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						zlog.Error("failed to shutdown", zap.Error(err))
					}
				}()

				zlog.Info("seeding roles, admin user and default rules")

				for i := range systemRoles {
					r := systemRoles[i]
					if existing, _ := roleRepo.FindByName(ctx, r.Name); existing != nil {
						continue
					}
					if err := roleRepo.Create(ctx, &r); err != nil {
						zlog.Error("failed to seed role", zap.String("role", r.Name), zap.Error(err))
					}
				}

				if existing, _ := userRepo.FindByUsername(ctx, "admin"); existing == nil {
					hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
					if err != nil {
						zlog.Error("failed to hash admin password", zap.Error(err))
						return
					}
					admin := &common_models.User{
						Username:  "admin",
						Password:  string(hash),
						Email:     "admin@localhost",
						FirstName: "Platform",
						LastName:  "Admin",
						Status:    "active",
						Role:      "platform-admin",
					}
					if err := userRepo.Create(ctx, admin); err != nil {
						zlog.Error("failed to seed admin user", zap.Error(err))
					} else {
						zlog.Warn("seeded default admin account, change its password before exposing the API")
					}
				}

				if existing, _ := ruleStore.Find(ctx, defaultRefundRules.Activity, defaultRefundRules.Module); len(existing) == 0 {
					cfg := defaultRefundRules
					if err := ruleStore.Save(ctx, &cfg); err != nil {
						zlog.Error("failed to seed refund rules", zap.Error(err))
					}
				}

				zlog.Info("seeding complete")
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			role.NewRoleRepository,
			user.NewUserRepository,
			workflow.NewRuleStore,
		),
		fx.WithLogger(func(zlog *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zlog}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
