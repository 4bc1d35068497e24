// Package cli holds the tenancyctl subcommands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/tenancy-service/internal/config"
	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/persistence"
	"github.com/spec-kit/tenancy-service/internal/repository"
	"github.com/spec-kit/tenancy-service/internal/service"
)

// session is the state a database-backed command needs.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &session{cfg: cfg, logger: logger, pg: pg}, nil
}

func (r *session) close() {
	r.pg.Close()
	_ = r.logger.Sync()
}

func (r *session) tenancyService() *service.TenancyService {
	pool := r.pg.PoolHandle()
	return service.NewTenancyService(service.TenancyDependencies{
		TenantRepo:  repository.NewTenantRepository(pool),
		UnitRepo:    repository.NewDepartmentRepository(pool),
		HistoryRepo: repository.NewTenancyHistoryRepository(pool),
		Transactor:  repository.NewTransactor(pool),
		Logger:      r.logger,
	})
}

// MigrateCmd applies the SQL migrations.
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = rt.cfg.Postgres.MigrationsDir
			}
			return persistence.RunMigrations(cmd.Context(), rt.pg.PoolHandle(), dir, rt.logger)
		},
	}
	cmd.Flags().String("dir", "", "migrations directory (defaults to POSTGRES_MIGRATIONS_DIR)")
	return cmd
}

// WindowCmd prints the contract window for a pair of dates.
func WindowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Compute the contract window for the given dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := dateFlag(cmd, "start")
			if err != nil {
				return err
			}
			end, err := dateFlag(cmd, "end")
			if err != nil {
				return err
			}
			now := time.Now()
			if raw, _ := cmd.Flags().GetString("now"); raw != "" {
				if now, err = parseDate(raw); err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(domain.ComputeContractWindow(start, end, now))
		},
	}
	cmd.Flags().String("start", "", "contract start (YYYY-MM-DD or RFC3339)")
	cmd.Flags().String("end", "", "contract end (YYYY-MM-DD or RFC3339)")
	cmd.Flags().String("now", "", "evaluation time (defaults to the current time)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// ExpiringCmd lists assigned contracts, by default only those expiring soon.
func ExpiringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "List contracts that are expiring soon",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			entries, err := rt.tenancyService().ContractReport(cmd.Context())
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			printReport(cmd, entries, all)
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "include every assigned contract")
	return cmd
}

// UserCmd groups account administration.
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant or admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			var in service.CreateUserInput
			in.Name, _ = cmd.Flags().GetString("name")
			in.Email, _ = cmd.Flags().GetString("email")
			in.Phone, _ = cmd.Flags().GetString("phone")
			in.Password, _ = cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")
			in.Role = domain.Role(role)

			authSvc := service.NewAuthService(rt.cfg.Auth, repository.NewTenantRepository(rt.pg.PoolHandle()), rt.logger)
			user, err := authSvc.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.ID, user.Email)
			return nil
		},
	}
	create.Flags().String("name", "", "display name")
	create.Flags().String("email", "", "login email")
	create.Flags().String("phone", "", "phone number")
	create.Flags().String("password", "", "initial password")
	create.Flags().String("role", string(domain.RoleTenant), "tenant or admin")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	cmd.AddCommand(create)
	return cmd
}

func printReport(cmd *cobra.Command, entries []service.ContractReportEntry, all bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-36s  %-10s  %-10s  %-10s  %5s\n", "Tenant", "Unit", "Start", "End", "Days")
	shown := 0
	for _, e := range entries {
		if !all && !e.Window.IsExpiringSoon {
			continue
		}
		fmt.Fprintf(out, "%-36s  %-10s  %-10s  %-10s  %5d\n",
			e.TenantID, e.UnitID,
			e.ContractStart.Format(time.DateOnly), e.ContractEnd.Format(time.DateOnly),
			e.Window.DaysUntilExpiry)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, "No matching contracts.")
	}
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	t, err := parseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return t, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
