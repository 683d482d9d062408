package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/poofware/locshare-service/internal/client"
	"github.com/poofware/locshare-service/internal/pgp"
)

func keygenCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen <name> [email]",
		Short: "Create a local OpenPGP key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := store.LoadKey(); err == nil && !force {
				return fmt.Errorf("a key already exists in %s (use --force to replace it)", store.Dir())
			} else if err != nil && !errors.Is(err, client.ErrNoKey) {
				return err
			}

			email := ""
			if len(args) == 2 {
				email = args[1]
			}
			e, err := pgp.GenerateKey(args[0], email)
			if err != nil {
				return err
			}
			if err := store.SaveKey(e); err != nil {
				return err
			}
			printf(cmd, "%s\n", pgp.Fingerprint(e))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key")
	return cmd
}

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the local public key with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := store.LoadKey()
			if err != nil {
				return err
			}
			armored, err := pgp.ArmorPublic(e)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			fp, err := client.NewAPI(serverURL).Register(ctx, armored)
			if err != nil {
				return err
			}
			printf(cmd, "registered %s\n", fp)
			return nil
		},
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Prove key possession and save a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := store.LoadKey()
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			api := client.NewAPI(serverURL)
			bearer, err := api.Login(ctx, e)
			if err != nil {
				return err
			}

			err = store.SaveSession(client.Session{
				Server:      serverURL,
				Fingerprint: pgp.Fingerprint(e),
				Bearer:      bearer,
				CreatedAt:   time.Now().UTC(),
			})
			if err != nil {
				return err
			}
			printf(cmd, "logged in as %s\n", pgp.Fingerprint(e))
			return nil
		},
	}
}
