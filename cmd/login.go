package cmd

import (
	"net/url"

	"github.com/spf13/cobra"
)

var (
	flagClientID     string
	flagRedirectURI  string
	flagScope        string
	flagResponseType string
	flagState        string
	flagNonce        string
)

// authorizationQuery assembles the flow query from the request flags. Only
// flags the user set end up in the query.
func authorizationQuery() url.Values {
	q := url.Values{}
	set := func(key, val string) {
		if val != "" {
			q.Set(key, val)
		}
	}
	set("client_id", flagClientID)
	set("redirect_uri", flagRedirectURI)
	set("scope", flagScope)
	set("response_type", flagResponseType)
	set("state", flagState)
	set("nonce", flagNonce)
	return q
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagClientID, "client-id", "", "OAuth client identifier")
	cmd.Flags().StringVar(&flagRedirectURI, "redirect-uri", "", "Registered redirect URI")
	cmd.Flags().StringVar(&flagScope, "scope", "", "Space-separated scopes")
	cmd.Flags().StringVar(&flagResponseType, "response-type", "code", "OAuth response type")
	cmd.Flags().StringVar(&flagState, "state", "", "Opaque state echoed back on redirect")
	cmd.Flags().StringVar(&flagNonce, "nonce", "", "OpenID Connect nonce")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open the login form",
	Long:  "Login opens the credential form. Request flags ride along in the query so the server can resume the authorization after sign-in.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}

		entry, err := entryURL(rt.cfg, "/login")
		if err != nil {
			return err
		}
		entry.RawQuery = authorizationQuery().Encode()

		return runFlow(rt, entry, nil)
	},
}

func init() {
	addRequestFlags(loginCmd)
}
