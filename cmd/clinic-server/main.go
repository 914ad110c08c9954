package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/clinicore/internal/config"
	"github.com/clinicore/clinicore/internal/domain/appointment"
	"github.com/clinicore/clinicore/internal/domain/availability"
	"github.com/clinicore/clinicore/internal/domain/department"
	"github.com/clinicore/clinicore/internal/domain/identity"
	"github.com/clinicore/clinicore/internal/domain/lab"
	"github.com/clinicore/clinicore/internal/domain/nursing"
	"github.com/clinicore/clinicore/internal/domain/pharmacy"
	"github.com/clinicore/clinicore/internal/domain/prescription"
	"github.com/clinicore/clinicore/internal/domain/radiology"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/codes"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/middleware"
	"github.com/clinicore/clinicore/pkg/apperr"
)

// slotBookerAdapter exposes the availability service to the appointment
// package without an import cycle.
type slotBookerAdapter struct {
	svc *availability.Service
}

func (a *slotBookerAdapter) Book(ctx context.Context, slotID uuid.UUID) (*appointment.BookedSlot, error) {
	slot, err := a.svc.Book(ctx, slotID)
	if err != nil {
		return nil, err
	}
	return &appointment.BookedSlot{ID: slot.ID, DoctorID: slot.DoctorID, StartTime: slot.StartTime}, nil
}

func (a *slotBookerAdapter) BookByDoctorTime(ctx context.Context, doctorID uuid.UUID, start time.Time) (*appointment.BookedSlot, error) {
	slot, err := a.svc.BookByDoctorTime(ctx, doctorID, start)
	if err != nil {
		return nil, err
	}
	return &appointment.BookedSlot{ID: slot.ID, DoctorID: slot.DoctorID, StartTime: slot.StartTime}, nil
}

// doctorDirectoryAdapter resolves doctors by name against the user store.
type doctorDirectoryAdapter struct {
	repo identity.Repository
}

func (a *doctorDirectoryAdapter) FindDoctorByName(ctx context.Context, name string) (uuid.UUID, error) {
	u, err := a.repo.FindDoctorByName(ctx, name)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return uuid.Nil, apperr.Validation("no active doctor matches %q", name)
		}
		return uuid.Nil, apperr.Internal(err)
	}
	return u.ID, nil
}

// departmentDirectoryAdapter narrows the department service to name
// resolution.
type departmentDirectoryAdapter struct {
	svc *department.Service
}

func (a *departmentDirectoryAdapter) ResolveName(ctx context.Context, name string) (uuid.UUID, error) {
	dept, err := a.svc.ResolveName(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}
	return dept.ID, nil
}

// patientDirectoryAdapter resolves patient human codes for the clinical
// domains. A code that belongs to a non-patient account reads as missing.
type patientDirectoryAdapter struct {
	repo identity.Repository
}

func (a *patientDirectoryAdapter) FindPatientByCode(ctx context.Context, code string) (uuid.UUID, string, error) {
	u, err := a.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return uuid.Nil, "", apperr.NotFound("patient %s not found", code)
		}
		return uuid.Nil, "", apperr.Internal(err)
	}
	if u.Role != identity.RolePatient {
		return uuid.Nil, "", apperr.NotFound("patient %s not found", code)
	}
	return u.ID, u.FullName(), nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinical workflow API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// createAdminCmd bootstraps the first administrator. Registration always
// parks staff accounts as inactive, so the initial admin has to come from
// outside the API.
func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			if len(password) < 6 {
				return fmt.Errorf("password must be at least 6 characters")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			users := identity.NewRepoPG(pool)
			gen := codes.NewGenerator()
			code, err := codes.Unique(ctx, func() string {
				return gen.Numeric(identity.RoleAdmin.Prefix(), 5)
			}, users.CodeExists)
			if err != nil {
				return err
			}

			u := &identity.User{
				Code:         code,
				FirstName:    firstName,
				LastName:     lastName,
				Email:        email,
				PasswordHash: string(hash),
				Role:         identity.RoleAdmin,
				Status:       identity.StatusActive,
			}
			if err := users.Create(ctx, u); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			fmt.Printf("Admin %s created with code %s.\n", email, code)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Admin email")
	cmd.Flags().String("password", "", "Admin password")
	cmd.Flags().String("first-name", "System", "First name")
	cmd.Flags().String("last-name", "Admin", "Last name")
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": "0.1.0"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	secret := []byte(cfg.JWTSecret)
	public := e.Group("/api/v1")
	api := e.Group("/api/v1", auth.Middleware(secret))

	gen := codes.NewGenerator()

	// Identity
	userRepo := identity.NewRepoPG(pool)
	identitySvc := identity.NewService(userRepo, gen, secret, cfg.TokenDuration())
	identity.NewHandler(identitySvc).RegisterRoutes(public, api)

	// Departments
	deptRepo := department.NewRepoPG(pool)
	deptSvc := department.NewService(deptRepo)
	department.NewHandler(deptSvc).RegisterRoutes(api)

	// Availability
	availRepo := availability.NewRepoPG(pool)
	availSvc := availability.NewService(availRepo)
	availability.NewHandler(availSvc).RegisterRoutes(api)

	// Appointments
	apptRepo := appointment.NewRepoPG(pool)
	apptSvc := appointment.NewService(apptRepo,
		&slotBookerAdapter{svc: availSvc},
		&doctorDirectoryAdapter{repo: userRepo},
		&departmentDirectoryAdapter{svc: deptSvc})
	appointment.NewHandler(apptSvc).RegisterRoutes(api)

	patients := &patientDirectoryAdapter{repo: userRepo}

	// Lab
	labRepo := lab.NewRepoPG(pool)
	labSvc := lab.NewService(labRepo, patients, gen)
	lab.NewHandler(labSvc).RegisterRoutes(api)

	// Radiology
	radRepo := radiology.NewRepoPG(pool)
	radSvc := radiology.NewService(radRepo, patients, gen)
	radiology.NewHandler(radSvc).RegisterRoutes(api)

	// Prescriptions
	rxRepo := prescription.NewRepoPG(pool)
	rxSvc := prescription.NewService(rxRepo, patients, gen)
	prescription.NewHandler(rxSvc).RegisterRoutes(api)

	// Pharmacy stock
	stockRepo := pharmacy.NewRepoPG(pool)
	stockSvc := pharmacy.NewService(stockRepo, gen)
	pharmacy.NewHandler(stockSvc).RegisterRoutes(api)

	// Nursing records
	nursingRepo := nursing.NewRepoPG(pool)
	nursingSvc := nursing.NewService(nursingRepo, patients, gen)
	nursing.NewHandler(nursingSvc).RegisterRoutes(api)

	// Serve with graceful shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
