package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/poofware/locshare-service/internal/dtos"
)

func groupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage sharing groups",
	}
	cmd.AddCommand(groupsCreateCmd(), groupsListCmd(), groupsAddCmd())
	return cmd
}

func groupsCreateCmd() *cobra.Command {
	var members []string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group with you as a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := authedAPI()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			g, err := api.CreateGroup(ctx, args[0], members)
			if err != nil {
				return err
			}
			printGroup(cmd, *g)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&members, "member", "m", nil, "member fingerprint (repeatable)")
	return cmd
}

func groupsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := authedAPI()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			groups, err := api.ListGroups(ctx)
			if err != nil {
				return err
			}
			for _, g := range groups {
				printGroup(cmd, g)
			}
			return nil
		},
	}
}

func groupsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <group-id> <fingerprint>...",
		Short: "Add registered identities to a group you belong to",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := authedAPI()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			g, err := api.AddMembers(ctx, args[0], args[1:])
			if err != nil {
				return err
			}
			printGroup(cmd, *g)
			return nil
		},
	}
}

func printGroup(cmd *cobra.Command, g dtos.GroupResponse) {
	names := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m.DisplayName != "" {
			names = append(names, m.DisplayName+" ("+m.Fingerprint+")")
		} else {
			names = append(names, m.Fingerprint)
		}
	}
	printf(cmd, "%s  %s  [%s]\n", g.ID, g.Name, strings.Join(names, ", "))
}
