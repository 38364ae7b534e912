package main

import (
	"encoding/json"
	"fmt"

	"github.com/carthy/go-auth"
	"github.com/carthy/go-auth/profile"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and the bootstrap administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		c.SeedUser = true
		rt, err := newRuntime(cmd.Context(), c)
		if err != nil {
			return err
		}
		return rt.Close()
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var issueTokenUsername string

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Issue a token for a stored user without checking the password",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		user, err := rt.users.FindByUsername(cmd.Context(), issueTokenUsername)
		if err != nil {
			return err
		}
		token, err := rt.tokens.Issue(user.ID, user.ToPrincipal())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(token)
	},
}

func init() {
	issueTokenCmd.Flags().StringVar(&issueTokenUsername, "username", profile.SeedUsername, "username of the token subject")
}
