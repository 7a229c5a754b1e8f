package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrEmailExists        = core.NewConflictError("an account with this email already exists", "email")
	ErrInvalidCredentials = core.NewAuthError("invalid email or password")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		QueryAllUsers(ctx context.Context, exec ...core.DBExecutor) ([]User, error)
		GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		// UpdateUser saves FullName and PasswordHash; Email and Role never change.
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	}

	Service struct {
		db        core.DB
		repo      Repository
		validator *core.Validator
	}
)

func NewService(db core.DB, repo Repository, validator *core.Validator) *Service {
	return &Service{db: db, repo: repo, validator: validator}
}

func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validator.Struct(nu); err != nil {
		return User{}, err
	}
	role, ok := ParseRole(nu.Role)
	if !ok {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "role must be one of [student teacher]"})
	}

	// fast path; the unique index still guards concurrent registrations
	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	usr := User{
		Email:    nu.Email,
		FullName: nu.FullName,
		Role:     role,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Authenticate returns the User matching the credentials. Every credential failure
// produces the same ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, lr LoginRequest) (User, error) {
	lr.Clean()
	if err := svc.validator.Struct(lr); err != nil {
		return User{}, ErrInvalidCredentials
	}
	usr, err := svc.repo.GetUserByEmail(ctx, lr.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := usr.CheckPassword(lr.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) UpdateSettings(ctx context.Context, id int, us UpdateSettings) (User, error) {
	us.Clean()
	if err := svc.validator.Struct(us); err != nil {
		return User{}, err
	}

	var usr User
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if usr, err = svc.repo.GetUserByID(ctx, id, tx); err != nil {
			return err
		}
		usr.FullName = us.FullName
		usr, err = svc.repo.UpdateUser(ctx, usr, tx)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) (User, error) {
	if err := svc.validator.Struct(resetPassword{Password: pwd}); err != nil {
		return User{}, err
	}

	var usr User
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if usr, err = svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */), tx); err != nil {
			return err
		}
		if err = usr.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		usr, err = svc.repo.UpdateUser(ctx, usr, tx)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}
