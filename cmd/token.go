package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/intent-agent/internal/access"
	"github.com/ziadkadry99/intent-agent/internal/db"
)

var (
	tokenIdentity string
	tokenScopes   []string
	tokenName     string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage caller tokens",
	Long: `Issue, list and revoke the tokens callers present to the query API.

Each token belongs to an identity, which carries the ordered list of
departments it may query.`,
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a token for an identity",
	Long: `Issues a new token for --identity. The identity is created first
when it does not exist yet, which requires --scopes.

The token is printed once and cannot be recovered later.`,
	RunE: runTokenCreate,
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token-id>",
	Short: "Revoke a token by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenRevoke,
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List identities and their tokens",
	RunE:  runTokenList,
}

func init() {
	tokenCreateCmd.Flags().StringVar(&tokenIdentity, "identity", "", "identity name")
	tokenCreateCmd.Flags().StringSliceVar(&tokenScopes, "scopes", nil, "departments for a new identity, in order (e.g. Food,Merchant)")
	tokenCreateCmd.Flags().StringVar(&tokenName, "name", "", "label for the token")
	tokenCreateCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (0 = never expires)")
	tokenCreateCmd.MarkFlagRequired("identity")

	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)
	tokenCmd.AddCommand(tokenListCmd)
}

func openTokenStore() (*db.DB, *access.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, access.NewStore(database), nil
}

func runTokenCreate(cmd *cobra.Command, args []string) error {
	database, store, err := openTokenStore()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()

	ident, err := findOrCreateIdentity(ctx, store, tokenIdentity, tokenScopes)
	if err != nil {
		return err
	}

	secret, info, err := store.IssueToken(ctx, ident.ID, tokenName, tokenTTL)
	if err != nil {
		return err
	}

	fmt.Printf("Token for %s (scopes: %v)\n", ident.Name, ident.Scopes)
	fmt.Printf("  id:    %s\n", info.ID)
	if info.ExpiresAt != nil {
		fmt.Printf("  expires: %s\n", info.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Printf("  token: %s\n", secret)
	fmt.Println("\nStore the token now. It cannot be shown again.")
	return nil
}

// findOrCreateIdentity returns the named identity, creating it with scopes
// when it does not exist.
func findOrCreateIdentity(ctx context.Context, store *access.Store, name string, scopes []string) (*access.Identity, error) {
	ident, err := store.FindIdentity(ctx, name)
	switch {
	case err == nil:
		if len(scopes) > 0 {
			fmt.Fprintf(os.Stderr, "Identity %s exists, ignoring --scopes\n", name)
		}
		return ident, nil
	case !errors.Is(err, access.ErrIdentityNotFound):
		return nil, err
	case len(scopes) == 0:
		return nil, fmt.Errorf("identity %q does not exist; pass --scopes to create it", name)
	}
	return store.CreateIdentity(ctx, name, scopes)
}

func runTokenRevoke(cmd *cobra.Command, args []string) error {
	database, store, err := openTokenStore()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()
	if err := store.RevokeToken(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Token %s revoked.\n", args[0])
	return nil
}

func runTokenList(cmd *cobra.Command, args []string) error {
	database, store, err := openTokenStore()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()

	idents, err := store.ListIdentities(ctx)
	if err != nil {
		return err
	}
	if len(idents) == 0 {
		fmt.Println("No identities. Create one with `intent-agent token create --identity NAME --scopes A,B`.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tSCOPES\tTOKEN ID\tNAME\tEXPIRES\tSTATUS")
	for _, ident := range idents {
		tokens, err := store.ListTokens(ctx, ident.ID)
		if err != nil {
			return err
		}
		if len(tokens) == 0 {
			fmt.Fprintf(w, "%s\t%v\t-\t-\t-\t-\n", ident.Name, ident.Scopes)
			continue
		}
		for _, t := range tokens {
			expires := "never"
			if t.ExpiresAt != nil {
				expires = t.ExpiresAt.Format(time.RFC3339)
			}
			status := "active"
			if t.Revoked {
				status = "revoked"
			}
			fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\t%s\n", ident.Name, ident.Scopes, t.ID, t.Name, expires, status)
		}
	}
	return w.Flush()
}
