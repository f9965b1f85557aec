package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/furkansenharputlu/f-keyfile/auth"
	"github.com/furkansenharputlu/f-keyfile/config"
	"github.com/furkansenharputlu/f-keyfile/lcs"
	"github.com/furkansenharputlu/f-keyfile/storage"
)

// errLicenseInvalid is returned after the diagnostic has been printed.
var errLicenseInvalid = errors.New("license is not valid")

type cli struct {
	fs         afero.Fs
	configPath string
	opts       []lcs.Option
}

// check validates the installed license and stores the outcome in the
// configured history backend.
func (c *cli) check(cmd *cobra.Command) (lcs.Outcome, error) {
	h, err := storage.Connect(config.Global)
	if err != nil {
		return lcs.Outcome{}, err
	}
	defer h.Close()

	opts := append([]lcs.Option{lcs.WithObserver(storage.Recorder(h))}, c.opts...)
	o := lcs.CheckerFromConfig(config.Global, c.fs, opts...).Check()
	if !o.OK() {
		fmt.Fprint(cmd.ErrOrStderr(), o.Message)
		return o, errLicenseInvalid
	}

	return o, nil
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the installed license",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := c.check(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s license is valid.\n", config.Global.Product)
			if date, ok := o.License.ExpiresAfter(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Expires after: %s\n", date)
			}
			return nil
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Validate the installed license and print its fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := c.check(cmd)
			if err != nil {
				return err
			}

			fields := o.License.Fields()
			for _, k := range fields.Keys() {
				v, _ := fields.Get(k)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", k, v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cloud: %t\n", o.License.IsCloud())
			fmt.Fprintf(cmd.OutOrStdout(), "Heroku: %t\n", o.License.IsHeroku())
			return nil
		},
	}
}

func (c *cli) featureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feature <tag>",
		Short: "Print whether the installed license contains tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := c.check(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), o.License.HasFeature(args[0]))
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past license checks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := storage.Connect(config.Global)
			if err != nil {
				return err
			}
			defer h.Close()

			records, err := h.GetAll(limit)
			if err != nil {
				return err
			}

			for _, r := range records {
				kind := r.Kind
				if kind == "" {
					kind = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", r.CreatedAt.UTC().Format(time.RFC3339), r.ID, r.Status, kind)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of checks to list, 0 for all")

	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token for the f-keyfile HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.IssueAdminToken(config.Global.AdminSecret, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime, 0 for no expiry")

	return cmd
}

func newRootCmd(fs afero.Fs, opts ...lcs.Option) *cobra.Command {
	c := &cli{fs: fs, opts: opts}

	rootCmd := &cobra.Command{
		Use:           "f-keyfile",
		Short:         "f-keyfile is the terminal tool for f-keyfile licenses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.Global = &config.Config{}
			if err := config.Global.Load(c.configPath); err != nil {
				return err
			}

			level, err := logrus.ParseLevel(config.Global.LogLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "config.json", "Config file path")

	rootCmd.AddCommand(c.checkCmd())
	rootCmd.AddCommand(c.showCmd())
	rootCmd.AddCommand(c.featureCmd())
	rootCmd.AddCommand(c.historyCmd())
	rootCmd.AddCommand(c.tokenCmd())

	return rootCmd
}

func main() {
	checkErr(newRootCmd(afero.NewOsFs()).Execute())
}

func checkErr(err error) {
	if err == errLicenseInvalid {
		os.Exit(1)
	}
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
