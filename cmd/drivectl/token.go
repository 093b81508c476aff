package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	jwttoken "charitydrive/internal/jwt_token"
	id "charitydrive/pkg/domain"
)

type tokenOutput struct {
	Account   string    `json:"account"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCmd(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token ACCOUNT",
		Short: "Sign a bearer token for ACCOUNT with the server's signing key",
		Long: `Token signs an access token locally. It needs the same signing key the
server was started with (--signing-key or DRIVECTL_SIGNING_KEY). Use a new
random account id to act as a fresh donor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if a.settings.SigningKey == "" {
				return errors.New("signing key is required")
			}
			account, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			svc := jwttoken.NewJWTService(a.settings.SigningKey, jwttoken.Issuer, jwttoken.Audience)
			token, err := svc.GenerateAccessToken(account, ttl)
			if err != nil {
				return err
			}
			return a.print(tokenOutput{
				Account:   account.String(),
				Token:     token,
				ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second),
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
