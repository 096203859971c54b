package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/kwanza/mahudhurio/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrUsernameExists       = errors.New("a user with this username already exists")
	ErrAuthenticationFailed = errors.New("invalid credentials")
)

type (
	Repository interface {
		CheckUniqueness(ctx context.Context, username, email string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		UpdatePasswordHash(ctx context.Context, usr User) error
		// DeleteUser removes the user row only; it fails with ErrNotFound
		// when no row was deleted.
		DeleteUser(ctx context.Context, id int) error
	}

	// AttendanceDeleter removes all attendance records owned by a user.
	// It is satisfied by the attendance repository and exists so that a
	// user deletion can cascade without importing the attendance package.
	AttendanceDeleter interface {
		DeleteRecordsByUser(ctx context.Context, userID int) error
	}

	ServiceInterface interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, usernameOrEmail, password string) (User, error)
		CheckUniqueness(username, email string) error
		QueryAll(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Delete(ctx context.Context, id int) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		repo       Repository
		attDeleter AttendanceDeleter
		mailSvc    core.EmailService
		appName    string
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(conf *core.Config, repo Repository, attDeleter AttendanceDeleter, mailSvc core.EmailService) *service {
	secretKey = conf.SecretKey
	passwordResetTimeoutDelta = conf.Server.PasswordResetTimeoutDelta
	return &service{
		repo:       repo,
		attDeleter: attDeleter,
		mailSvc:    mailSvc,
		appName:    conf.AppName,
	}
}

func (svc *service) CheckUniqueness(uname, email string) error {
	if err := svc.repo.CheckUniqueness(context.Background(), uname, email); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		StudentNo: nu.StudentNo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// class binding only applies to students and teachers
	if nu.ClassID != nil && usr.Role != RoleAdmin {
		usr.ClassID.SetValid(*nu.ClassID)
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Authenticate(ctx context.Context, usernameOrEmail, password string) (User, error) {
	usr, err := svc.repo.GetUserByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(password); err != nil {
		return User{}, ErrAuthenticationFailed
	}
	return usr, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, email)
}

// Delete removes a user and all their attendance records.
// Attendance rows go first: if their deletion fails the user row is left
// untouched, so the store never holds attendance rows for a missing user.
func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.repo.GetUserByID(ctx, id); err != nil {
		return err
	}
	if err := svc.attDeleter.DeleteRecordsByUser(ctx, id); err != nil {
		return errors.Wrap(err, "deleting user attendance records")
	}
	return svc.repo.DeleteUser(ctx, id)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      fmt.Sprintf("Password reset on %s", svc.appName),
		TemplateName: "password-reset",
		TemplateData: struct {
			User  User
			UID   string
			Token string
		}{usr, encodeUID(usr), makeToken(usr)},
	})
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePasswordHash(ctx, usr)
}
