package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token in the OS keyring",
		Long: `Store the access token used by "levelup-watch watch".

The token is taken from --token or LEVELUP_TOKEN, otherwise it is read from the first
line of stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = cfg.Close() }()

			token := cfg.GetString("token")
			if token == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")
				if token, err = readToken(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			ring, err := openKeyring(cfg)
			if err != nil {
				return err
			}
			if err := ring.Store(token); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Access token stored.")
			return nil
		},
	}

	return cmd
}

func logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = cfg.Close() }()

			ring, err := openKeyring(cfg)
			if err != nil {
				return err
			}
			if err := ring.Remove(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Access token removed.")
			return nil
		},
	}

	return cmd
}

// readToken returns the first non-empty line of r, trimmed.
func readToken(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return "", errors.New("no access token given")
}
