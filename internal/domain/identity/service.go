package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/codes"
	"github.com/clinicore/clinicore/pkg/apperr"
)

const codeDigits = 5

type Service struct {
	repo     Repository
	codes    *codes.Generator
	secret   []byte
	tokenTTL time.Duration
}

func NewService(repo Repository, gen *codes.Generator, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, codes: gen, secret: secret, tokenTTL: tokenTTL}
}

// RegisterInput carries everything a caller may supply at sign-up. Status is
// advisory only: non-patients are forced inactive no matter what it says.
type RegisterInput struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"dateOfBirth"`
	Address     *string `json:"address"`

	Department     *string `json:"department"`
	Specialization *string `json:"specialization"`
	LicenseNumber  *string `json:"licenseNumber"`

	BloodGroup        *string  `json:"bloodGroup"`
	Allergies         []string `json:"allergies"`
	MedicalHistory    []string `json:"medicalHistory"`
	InsuranceProvider *string  `json:"insuranceProvider"`
	InsuranceNumber   *string  `json:"insuranceNumber"`
}

func parseDOB(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Validation("invalid dateOfBirth: %s", *s)
}

// Register creates an account, assigns its human code and, when the account
// comes up active, returns a login token alongside the user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	if in.FirstName == "" || in.LastName == "" {
		return nil, "", apperr.Validation("firstName and lastName are required")
	}
	if in.Email == "" || in.Phone == "" {
		return nil, "", apperr.Validation("email and phone are required")
	}
	if len(in.Password) < 6 {
		return nil, "", apperr.Validation("password must be at least 6 characters")
	}
	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, "", apperr.Validation("invalid role: %s", in.Role)
	}
	dob, err := parseDOB(in.DateOfBirth)
	if err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	code, err := codes.Unique(ctx, func() string {
		return s.codes.Numeric(role.Prefix(), codeDigits)
	}, s.repo.CodeExists)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	u := &User{
		Code:              code,
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Email:             strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:             strings.TrimSpace(in.Phone),
		PasswordHash:      string(hash),
		Role:              role,
		Gender:            in.Gender,
		DateOfBirth:       dob,
		Address:           in.Address,
		Department:        in.Department,
		Specialization:    in.Specialization,
		LicenseNumber:     in.LicenseNumber,
		BloodGroup:        in.BloodGroup,
		Allergies:         in.Allergies,
		MedicalHistory:    in.MedicalHistory,
		InsuranceProvider: in.InsuranceProvider,
		InsuranceNumber:   in.InsuranceNumber,
		Status:            initialStatus(role, in.Status),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, "", apperr.Conflict("email or phone already registered")
		}
		return nil, "", apperr.Internal(err)
	}

	var token string
	if u.Status == StatusActive {
		token, err = auth.IssueToken(s.secret, s.tokenTTL, u.ID.String(), u.Code, u.Role.String())
		if err != nil {
			return nil, "", apperr.Internal(err)
		}
	}
	return u, token, nil
}

// Login authenticates by email and password. A wrong email and a wrong
// password are indistinguishable; a correct pair on a non-active account
// gets a distinct forbidden error.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperr.Validation("email and password are required")
	}
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", apperr.Unauthenticated("invalid credentials")
		}
		return nil, "", apperr.Internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", apperr.Unauthenticated("invalid credentials")
	}
	if u.Status != StatusActive {
		return nil, "", apperr.Forbidden("account is not active")
	}
	token, err := auth.IssueToken(s.secret, s.tokenTTL, u.ID.String(), u.Code, u.Role.String())
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return u, token, nil
}

// Approve activates an account by its human code. Re-approving an already
// active account succeeds without touching the approval stamp.
func (s *Service) Approve(ctx context.Context, code string, approvedBy uuid.UUID) (*User, error) {
	u, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user %s not found", code)
		}
		return nil, apperr.Internal(err)
	}
	if u.Status == StatusActive {
		return u, nil
	}
	if _, err := s.repo.Activate(ctx, u.ID, approvedBy); err != nil {
		return nil, apperr.Internal(err)
	}
	u, err = s.repo.GetByID(ctx, u.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// Deactivate is the inverse of Approve and equally idempotent.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	if u.Status == StatusInactive {
		return u, nil
	}
	if _, err := s.repo.Deactivate(ctx, id); err != nil {
		return nil, apperr.Internal(err)
	}
	u.Status = StatusInactive
	return u, nil
}

// UpdateInput is the patch shape for generic account updates. Status, role
// and the approval stamp are deliberately absent: only Approve/Deactivate
// change account state.
type UpdateInput struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Password    *string `json:"password"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"dateOfBirth"`
	Address     *string `json:"address"`

	Department     *string `json:"department"`
	Specialization *string `json:"specialization"`
	LicenseNumber  *string `json:"licenseNumber"`

	BloodGroup        *string  `json:"bloodGroup"`
	Allergies         []string `json:"allergies"`
	MedicalHistory    []string `json:"medicalHistory"`
	InsuranceProvider *string  `json:"insuranceProvider"`
	InsuranceNumber   *string  `json:"insuranceNumber"`
}

func (s *Service) applyPatch(u *User, in UpdateInput) error {
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Password != nil {
		if len(*in.Password) < 6 {
			return apperr.Validation("password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return apperr.Internal(err)
		}
		u.PasswordHash = string(hash)
	}
	if in.Gender != nil {
		u.Gender = in.Gender
	}
	if in.DateOfBirth != nil {
		dob, err := parseDOB(in.DateOfBirth)
		if err != nil {
			return err
		}
		u.DateOfBirth = dob
	}
	if in.Address != nil {
		u.Address = in.Address
	}
	if in.Department != nil {
		u.Department = in.Department
	}
	if in.Specialization != nil {
		u.Specialization = in.Specialization
	}
	if in.LicenseNumber != nil {
		u.LicenseNumber = in.LicenseNumber
	}
	if in.BloodGroup != nil {
		u.BloodGroup = in.BloodGroup
	}
	if in.Allergies != nil {
		u.Allergies = in.Allergies
	}
	if in.MedicalHistory != nil {
		u.MedicalHistory = in.MedicalHistory
	}
	if in.InsuranceProvider != nil {
		u.InsuranceProvider = in.InsuranceProvider
	}
	if in.InsuranceNumber != nil {
		u.InsuranceNumber = in.InsuranceNumber
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	if err := s.applyPatch(u, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.Conflict("email or phone already in use")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*User, int, error) {
	users, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return users, total, nil
}

// ListPending returns accounts awaiting admin approval.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.List(ctx, Filter{Status: StatusInactive}, limit, offset)
}

// -- Patient desk (receptionist/admin surface) --

// CreatePatient registers a walk-in patient. Role is fixed; the account is
// active immediately.
func (s *Service) CreatePatient(ctx context.Context, in RegisterInput) (*User, error) {
	in.Role = RolePatient.String()
	u, _, err := s.Register(ctx, in)
	return u, err
}

func (s *Service) ListPatients(ctx context.Context, query string, limit, offset int) ([]*User, int, error) {
	return s.List(ctx, Filter{Role: RolePatient, Query: query}, limit, offset)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != RolePatient {
		return nil, apperr.NotFound("patient not found")
	}
	return u, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in UpdateInput) (*User, error) {
	if _, err := s.GetPatient(ctx, id); err != nil {
		return nil, err
	}
	return s.Update(ctx, id, in)
}

// DeletePatient removes a patient record. Soft deletion deactivates the
// account instead of dropping the row.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID, hard bool) error {
	if _, err := s.GetPatient(ctx, id); err != nil {
		return err
	}
	if hard {
		return s.Delete(ctx, id)
	}
	_, err := s.Deactivate(ctx, id)
	return err
}
