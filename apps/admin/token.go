package main

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/devnest/devnest/apps/api/echo"
)

var (
	errNoPasswordHash  = errors.New("admin.passwordHash is not configured")
	errInvalidPassword = errors.New("invalid password")
)

func (cli *commandLine) token(pwd []byte) error {
	if cli.conf.Admin.PasswordHash == "" {
		return errNoPasswordHash
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cli.conf.Admin.PasswordHash), pwd); err != nil {
		return errInvalidPassword
	}

	token, err := echoapi.GenerateToken(cli.conf.SecretKey, echoapi.NewAdminClaims(cli.conf))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	_, err = fmt.Fprintln(cli.out, token)
	return err
}

func (cli *commandLine) hashPassword(pwd []byte) error {
	hash, err := bcrypt.GenerateFromPassword(pwd, bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = fmt.Fprintln(cli.out, string(hash))
	return err
}
