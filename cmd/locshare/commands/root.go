package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/spf13/cobra"

	"github.com/poofware/locshare-service/internal/client"
)

const commandTimeout = 30 * time.Second

var (
	home      string
	serverURL string
	store     *client.FileStore
)

func Execute() error {
	root := &cobra.Command{
		Use:          "locshare",
		Short:        "End-to-end encrypted location sharing",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".locshare")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			store = client.NewFileStore(home)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.locshare)")
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "server base URL")

	root.AddCommand(keygenCmd(), registerCmd(), loginCmd(), groupsCmd(), publishCmd(), fetchCmd())
	return root.Execute()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), commandTimeout)
}

// authedAPI returns a client carrying the saved bearer secret and the
// local key it belongs to.
func authedAPI() (*client.API, *openpgp.Entity, error) {
	key, err := store.LoadKey()
	if err != nil {
		return nil, nil, err
	}
	sess, err := store.LoadSession()
	if err != nil {
		return nil, nil, err
	}
	base := serverURL
	if sess.Server != "" {
		base = sess.Server
	}
	api := client.NewAPI(base)
	api.Bearer = sess.Bearer
	return api, key, nil
}

func printf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
