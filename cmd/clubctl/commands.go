package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sciclub-api/internal/app"
	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/internal/repository"
	"github.com/noah-isme/sciclub-api/pkg/config"
	"github.com/noah-isme/sciclub-api/pkg/database"
	"github.com/noah-isme/sciclub-api/pkg/logger"
)

type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "clubctl",
		Short:         "Operator tasks for the science club API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			l, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt.cfg, rt.logger = cfg, l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}
	root.AddCommand(
		newMigrateCmd(rt),
		newSeedAdminCmd(rt),
		newCreateAdvisorCmd(rt),
		newPurgeOTPCmd(rt),
	)
	return root
}

func (rt *runtime) withDB(ctx context.Context, fn func(db *sqlx.DB) error) error {
	db, err := database.NewPostgres(ctx, rt.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	return fn(db)
}

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withDB(cmd.Context(), func(db *sqlx.DB) error {
				if err := database.Migrate(cmd.Context(), db); err != nil {
					return err
				}
				rt.logger.Info("schema applied")
				return nil
			})
		},
	}
}

func hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func newSeedAdminCmd(rt *runtime) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create a back-office administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := hashPassword(password)
			if err != nil {
				return err
			}
			return rt.withDB(cmd.Context(), func(db *sqlx.DB) error {
				now := time.Now().UTC()
				user := &models.User{
					Name:            strings.TrimSpace(name),
					Email:           strings.ToLower(strings.TrimSpace(email)),
					PasswordHash:    hash,
					EmailVerifiedAt: &now,
				}
				if err := repository.NewUserRepository(db).Create(cmd.Context(), user); err != nil {
					return fmt.Errorf("create admin: %w", err)
				}
				rt.logger.Info("admin created", zap.String("id", user.ID), zap.String("email", user.Email))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newCreateAdvisorCmd(rt *runtime) *cobra.Command {
	var name, email, password, role, department, designation string
	cmd := &cobra.Command{
		Use:   "create-advisor",
		Short: "Create an advisor or moderator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			clubRole := models.ClubRole(role)
			if clubRole != models.ClubRoleAdvisor && clubRole != models.ClubRoleModerator {
				return fmt.Errorf("role must be %q or %q", models.ClubRoleAdvisor, models.ClubRoleModerator)
			}
			hash, err := hashPassword(password)
			if err != nil {
				return err
			}
			return rt.withDB(cmd.Context(), func(db *sqlx.DB) error {
				advisor := &models.Advisor{
					AdvisorName:  strings.TrimSpace(name),
					Email:        strings.ToLower(strings.TrimSpace(email)),
					ClubRole:     clubRole,
					PasswordHash: hash,
					Department:   optional(department),
					Designation:  optional(designation),
				}
				if err := repository.NewAdvisorRepository(db).Create(cmd.Context(), advisor); err != nil {
					return fmt.Errorf("create advisor: %w", err)
				}
				rt.logger.Info("advisor created", zap.String("id", advisor.ID), zap.String("email", advisor.Email))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "advisor name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(models.ClubRoleAdvisor), "Advisor or Moderator")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&designation, "designation", "", "designation")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newPurgeOTPCmd(rt *runtime) *cobra.Command {
	var purpose, subject string
	var expired bool
	cmd := &cobra.Command{
		Use:   "purge-otp",
		Short: "Forget a pending OTP or sweep expired ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !expired && (purpose == "" || subject == "") {
				return errors.New("either --expired or both --purpose and --subject are required")
			}
			store, client, err := app.OpenOTPStore(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			if client != nil {
				defer client.Close()
			}
			return purgeOTP(cmd, store, purpose, subject, expired, time.Now().UTC())
		},
	}
	cmd.Flags().StringVar(&purpose, "purpose", "", "email_change, password_change or contact")
	cmd.Flags().StringVar(&subject, "subject", "", "user id or email the code was issued for")
	cmd.Flags().BoolVar(&expired, "expired", false, "remove every expired entry")
	return cmd
}

func purgeOTP(cmd *cobra.Command, store app.OTPStore, purpose, subject string, expired bool, now time.Time) error {
	ctx := cmd.Context()
	if expired {
		n, err := store.PurgeExpired(ctx, now)
		if err != nil {
			return fmt.Errorf("purge expired: %w", err)
		}
		cmd.Printf("removed %d expired entries\n", n)
		return nil
	}

	p := models.OTPPurpose(purpose)
	switch p {
	case models.OTPPurposeEmailChange, models.OTPPurposePasswordChange, models.OTPPurposeContact:
	default:
		return fmt.Errorf("unknown purpose %q", purpose)
	}
	if p == models.OTPPurposeContact {
		subject = strings.ToLower(strings.TrimSpace(subject))
	}
	if err := store.Forget(ctx, models.OTPKey(p, subject)); err != nil {
		return fmt.Errorf("forget otp: %w", err)
	}
	cmd.Printf("forgot %s code for %s\n", p, subject)
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
