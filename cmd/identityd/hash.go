package main

import (
	"fmt"

	identity "github.com/goliatone/go-identity"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash <password>",
	Short: "Print the bcrypt hash of a password",
	Long: `hash generates the password hash stored in the users table. Use it
to craft fixtures or to reset an account by hand.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := identity.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}
