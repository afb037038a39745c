package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"fitbridge/internal/session"
	"fitbridge/pkg/oauth"
)

// now is replaced in tests.
var now = time.Now

func newSessionCmd() *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect session cookies",
	}

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "inspect COOKIE",
		Short: "Decrypt a session cookie and show its fields",
		Long: `Decrypts a session cookie value with SESSION_SECRET and prints its fields.
Tokens and the PKCE verifier are redacted.

If the cookie cannot be decrypted the reason is reported: a tampered cookie
(authentication failed, or a different secret), a malformed envelope, or a
stale schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectSession(cmd.OutOrStdout(), os.Getenv("SESSION_SECRET"), args[0])
		},
	})

	return sessionCmd
}

func inspectSession(out io.Writer, secret, cookie string) error {
	if secret == "" {
		return fmt.Errorf("SESSION_SECRET is not set")
	}
	key, err := hex.DecodeString(secret)
	if err != nil {
		return fmt.Errorf("SESSION_SECRET is not hex: %w", err)
	}
	codec, err := session.NewCodec(key)
	if err != nil {
		return err
	}

	data, err := codec.Decrypt(cookie)
	if err != nil {
		return fmt.Errorf("%s: %w", failureKind(err), err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("FIELD"), text.FgHiCyan.Sprint("VALUE")})

	t.AppendRow(table.Row{"state", data.State})
	t.AppendRow(table.Row{"codeVerifier", oauth.Redact(data.CodeVerifier)})
	t.AppendRow(table.Row{"postLoginReturnUrl", data.PostLoginReturnURL})

	if ts := data.TokenSet; ts != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"userId", ts.UserID})
		t.AppendRow(table.Row{"scope", ts.Scope})
		if missing := ts.MissingScopes(oauth.DefaultScopes); len(missing) > 0 {
			t.AppendRow(table.Row{"missingScopes", text.FgRed.Sprint(strings.Join(missing, " "))})
		}
		t.AppendRow(table.Row{"tokenType", ts.TokenType})
		t.AppendRow(table.Row{"accessToken", oauth.Redact(ts.AccessToken)})
		t.AppendRow(table.Row{"refreshToken", oauth.Redact(ts.RefreshToken)})
		t.AppendRow(table.Row{"expiresAt", ts.ExpiresAt.Format(time.RFC3339) + " " + expiryStatus(ts)})
	} else {
		t.AppendRow(table.Row{"tokenSet", text.FgYellow.Sprint("none (not logged in)")})
	}

	t.Render()
	return nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, session.ErrTamperedSession):
		return "tampered session"
	case errors.Is(err, session.ErrInvalidEnvelope):
		return "invalid envelope"
	case oauth.IsSchemaValidation(err):
		return "stale schema"
	default:
		return "unreadable session"
	}
}

func expiryStatus(ts *oauth.TokenSet) string {
	current := now()
	switch {
	case !ts.ExpiresAt.After(current):
		return text.FgRed.Sprint("(expired)")
	case ts.NeedsRefresh(current):
		return text.FgYellow.Sprint("(refresh due)")
	default:
		return text.FgGreen.Sprintf("(valid for %s)", ts.ExpiresAt.Sub(current).Round(time.Second))
	}
}
