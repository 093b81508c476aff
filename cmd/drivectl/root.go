package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by every command of one invocation.
type app struct {
	out        io.Writer
	configPath string
	settings   settings
	client     *client
}

func (a *app) print(v any) error {
	return render(a.out, a.settings.Output, v)
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "drivectl",
		Short: "drivectl operates a charity drive marketplace",
		Long: `drivectl talks to a charitydrive server. The operator uses it to manage
the required-items registry and the bidding window; donors use it to buy
credit and bid for items.

Settings come from flags, DRIVECTL_* environment variables, or ~/.drivectl.yaml.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(viper.New(), cmd.Flags(), a.configPath)
			if err != nil {
				return err
			}
			a.settings = s
			a.client = newClient(s)
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default "+defaultConfigPath()+")")
	flags.String(cfgKeyServer, defaultServer, "server base URL")
	flags.String(cfgKeyToken, "", "bearer token identifying the caller")
	flags.String(cfgKeyAdminToken, "", "admin token for catalog administration")
	flags.String(cfgKeySigningKey, "", "JWT signing key used by the token command")
	flags.StringP(cfgKeyOutput, "o", defaultOutput, "output format: yaml or json")

	root.AddCommand(
		newStatusCmd(a),
		newBiddingCmd(a),
		newRegistryCmd(a),
		newCreditCmd(a),
		newBidCmd(a),
		newSweepCmd(a),
		newBalanceCmd(a),
		newCatalogCmd(a),
		newTokenCmd(a),
	)
	return root
}
