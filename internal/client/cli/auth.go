package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/blogkeeper/internal/client/models"
	"github.com/dmitrijs2005/blogkeeper/internal/client/services"
	"github.com/dmitrijs2005/blogkeeper/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

var errPasswordMismatch = fmt.Errorf("%w: passwords do not match", common.ErrValidation)

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

// askPassword reads a password and returns it as a string. The raw bytes
// are wiped before returning.
func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Register prompts for the account fields and creates the account. On
// success the new user is signed in on this device.
func (a *App) Register(ctx context.Context) error {
	fullName, err := a.ask("Full name")
	if err != nil {
		return err
	}
	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Password")
	if err != nil {
		return err
	}
	confirm, err := a.askPassword("Repeat password")
	if err != nil {
		return err
	}
	if password != confirm {
		return errPasswordMismatch
	}
	gender, err := a.ask("Gender (optional)")
	if err != nil {
		return err
	}
	ageText, err := a.ask("Age (optional)")
	if err != nil {
		return err
	}
	age, err := optionalInt(ageText)
	if err != nil {
		return err
	}

	res, err := a.session.Register(ctx, services.RegisterInput{
		FullName: fullName,
		Email:    email,
		Password: password,
		Gender:   optionalString(gender),
		Age:      age,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Welcome, %s! Session valid until %s\n", res.User.FullName, res.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

// Login prompts for credentials and signs in. A previous session on this
// device is replaced.
func (a *App) Login(ctx context.Context) error {
	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Password")
	if err != nil {
		return err
	}

	res, err := a.session.Login(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", res.User.Email)
	return nil
}

// Logout ends the session on this device. The remote stamp is best effort,
// so the user is always signed out locally.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// WhoAmI re-checks the session against the record store and prints the
// current profile.
func (a *App) WhoAmI(ctx context.Context) error {
	p, err := a.session.Validate(ctx)
	if err != nil {
		return err
	}
	printProfile(a.out, p)
	return nil
}

func printProfile(w io.Writer, p *models.Profile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", p.FullName)
	fmt.Fprintf(tw, "Email:\t%s\n", p.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", p.Role)
	if p.Gender != nil {
		fmt.Fprintf(tw, "Gender:\t%s\n", *p.Gender)
	}
	if p.Age != nil {
		fmt.Fprintf(tw, "Age:\t%d\n", *p.Age)
	}
	fmt.Fprintf(tw, "Member since:\t%s\n", p.CreatedAt.Local().Format(time.DateOnly))
	_ = tw.Flush()
}

// Profile edits the name, gender and age. Empty answers keep the
// current value.
func (a *App) Profile(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		return common.ErrNotAuthenticated
	}

	fullName, err := a.ask("New full name (empty to keep)")
	if err != nil {
		return err
	}
	gender, err := a.ask("New gender (empty to keep)")
	if err != nil {
		return err
	}
	ageText, err := a.ask("New age (empty to keep)")
	if err != nil {
		return err
	}
	age, err := optionalInt(ageText)
	if err != nil {
		return err
	}

	upd := models.ProfileUpdate{
		FullName: optionalString(fullName),
		Gender:   optionalString(gender),
		Age:      age,
	}
	if upd.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}

	p, err := a.session.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated")
	printProfile(a.out, p)
	return nil
}

// Passwd changes the password of the signed-in user.
func (a *App) Passwd(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		return common.ErrNotAuthenticated
	}

	oldPassword, err := a.askPassword("Current password")
	if err != nil {
		return err
	}
	newPassword, err := a.askPassword("New password")
	if err != nil {
		return err
	}
	confirm, err := a.askPassword("Repeat new password")
	if err != nil {
		return err
	}
	if newPassword != confirm {
		return errPasswordMismatch
	}

	err = a.session.ChangePassword(ctx, oldPassword, newPassword)
	if err != nil && !errors.Is(err, common.ErrSessionsNotRevoked) {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	if err != nil {
		fmt.Fprintln(a.out, "Warning: other devices could not be signed out, run 'passwd' again or check 'sessions'")
	}
	return nil
}

// Sessions lists the active sessions of the current user. The one held by
// this device is marked with an asterisk.
func (a *App) Sessions(ctx context.Context) error {
	list, err := a.session.ActiveSessions(ctx)
	if err != nil {
		return err
	}
	current := a.session.State().Token

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tTOKEN\tPLATFORM\tSIGNED IN\tEXPIRES")
	for _, s := range list {
		mark := ""
		if s.Token == current {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			mark,
			common.TokenPrefix(s.Token),
			s.Device.Platform,
			s.CreatedAt.Local().Format(time.DateTime),
			s.ExpiredAt.Local().Format(time.DateTime),
		)
	}
	return tw.Flush()
}

// describeError turns service errors into a line for the terminal.
func describeError(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, common.ErrDuplicateEmail):
		return "an account with this email already exists"
	case errors.Is(err, common.ErrNotAuthenticated):
		return "you are not signed in, use 'login' or 'register'"
	case errors.Is(err, common.ErrSessionExpiredOrRevoked):
		return "your session has expired or was revoked, please log in again"
	case errors.Is(err, common.ErrNetworkTimeout):
		return "the request timed out, try again later"
	case errors.Is(err, common.ErrorNotFound):
		return "not found"
	default:
		return err.Error()
	}
}
