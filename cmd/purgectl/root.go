package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lyzr/accounts/common/clients"
	"github.com/lyzr/accounts/common/logger"
)

const purgePath = "/api/v1/admin/purge-by-email"

func newRootCmd() *cobra.Command {
	var configFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "purgectl",
		Short: "Operator tool for the accounts service",
		Long: `purgectl calls the accounts service's operator endpoints.
Use it to remove accounts whose self-service deletion left rows behind.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().String(cfgKeyEndpoint, defaultEndpoint, "accounts service base URL")
	rootCmd.PersistentFlags().String(cfgKeySecret, "", "operator purge secret")
	rootCmd.PersistentFlags().Duration(cfgKeyTimeout, defaultTimeout, "request timeout")
	_ = v.BindPFlag(cfgKeyEndpoint, rootCmd.PersistentFlags().Lookup(cfgKeyEndpoint))
	_ = v.BindPFlag(cfgKeySecret, rootCmd.PersistentFlags().Lookup(cfgKeySecret))
	_ = v.BindPFlag(cfgKeyTimeout, rootCmd.PersistentFlags().Lookup(cfgKeyTimeout))

	rootCmd.AddCommand(newPurgeByEmailCmd(v, &configFile))

	return rootCmd
}

func newPurgeByEmailCmd(v *viper.Viper, configFile *string) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "purge-by-email",
		Short: "Remove an account and every row referencing it, found by email",
		Long: `purge-by-email resolves the account by case-insensitive email and erases it
in one transaction. No subscription cancellation or farewell message is sent.
The diagnostic report is printed as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadConfig(v, *configFile)
			if err != nil {
				return err
			}
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			log := logger.NewWithWriter(cmd.ErrOrStderr(), s.LogLevel, "text")
			return purgeByEmail(cmd.Context(), s, email, cmd.OutOrStdout(), log)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the account to purge")

	return cmd
}

// purgeByEmail posts the request and prints the response body as indented
// JSON. Any non-200 status is returned as an error after printing.
func purgeByEmail(ctx context.Context, s *settings, email string, out io.Writer, log *logger.Logger) error {
	client := clients.NewHTTPClient(&http.Client{Timeout: s.Timeout}, log)
	client.SetHeader("X-Purge-Secret", s.Secret)

	payload, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	log.Debug("purge request", "endpoint", s.Endpoint)

	resp, err := client.DoRequest(ctx, http.MethodPost, s.Endpoint+purgePath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("purge request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		body = pretty.Bytes()
	}
	fmt.Fprintln(out, string(body))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("purge failed: status=%d", resp.StatusCode)
	}

	return nil
}
