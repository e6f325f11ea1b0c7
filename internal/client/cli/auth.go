package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/voiceroll/voiceroll/internal/client/api"
	"github.com/voiceroll/voiceroll/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and authenticates against the service.
//
// Students log in with their student identifier; admins with a username and
// password. On success the credential is persisted by the API client, so
// later sessions start logged in. Any I/O or service error is reported to
// the user and returned unchanged.
func (a *App) Login(ctx context.Context) error {
	userType, err := getSimpleText(a.reader, "Account type: (s)tudent or (a)dmin [s]", os.Stdout)
	if err != nil {
		return err
	}

	req := api.LoginRequest{UserType: common.UserTypeStudent}
	switch userType {
	case "", "s", common.UserTypeStudent:
		req.StudentID, err = getSimpleText(a.reader, "Enter student ID", os.Stdout)
		if err != nil {
			return err
		}
	case "a", common.UserTypeAdmin:
		req.UserType = common.UserTypeAdmin
		req.Username, err = getSimpleText(a.reader, "Enter username", os.Stdout)
		if err != nil {
			return err
		}
		req.Password, err = getPassword(os.Stdout)
		if err != nil {
			return err
		}
	default:
		printlnFn("Unknown account type:", userType)
		return nil
	}

	cred, err := a.api.Login(ctx, req)
	if err != nil {
		printlnFn("Login failed:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Logged in as %s", cred.Label()))
	return nil
}

// Logout drops the persisted credential. The server call is best-effort;
// the local session ends either way.
func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		printlnFn("Logout:", err.Error())
		return err
	}
	printlnFn("Logged out")
	return nil
}

// Whoami asks the service who the current token belongs to.
func (a *App) Whoami(ctx context.Context) error {
	me, err := a.api.Me(ctx)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) || errors.Is(err, common.ErrNotLoggedIn) {
			printlnFn("Not logged in")
		} else {
			printlnFn("Error:", err.Error())
		}
		return err
	}

	if me.UserType == common.UserTypeStudent {
		printlnFn(fmt.Sprintf("%s (%s, student %s)", me.Name, me.Username, me.StudentID))
	} else {
		printlnFn(fmt.Sprintf("%s (%s, %s)", me.Name, me.Username, me.UserType))
	}
	return nil
}
