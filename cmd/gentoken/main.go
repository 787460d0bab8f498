// Command gentoken mints an access token signed with the server's private key,
// or prints the payload of an existing token.
//
//	gentoken -email admin@example.com -roles ADMIN
//	gentoken -inspect <token>
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/blogcore/blogcore/internal/config"
	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/identity/jwt"
	"github.com/google/uuid"
)

func main() {
	defaults := config.Default().JWT

	privateKey := flag.String("private-key", defaults.PrivateKeyPath, "path to the PEM encoded RSA private key")
	subject := flag.String("sub", "", "token subject (default: random UUID)")
	email := flag.String("email", "admin@example.com", "email claim")
	roles := flag.String("roles", string(domain.RoleAdmin), "comma separated roles")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	issuer := flag.String("issuer", defaults.Issuer, "issuer claim")
	inspect := flag.String("inspect", "", "print the unverified payload of this token and exit")
	flag.Parse()

	var err error
	if *inspect != "" {
		err = inspectToken(os.Stdout, *inspect)
	} else {
		err = mint(os.Stdout, mintOptions{
			PrivateKey: *privateKey,
			Subject:    *subject,
			Email:      *email,
			Roles:      *roles,
			Issuer:     *issuer,
			Expiry:     *expiry,
		})
	}
	if err != nil {
		slog.Error("gentoken failed", "error", err)
		os.Exit(1)
	}
}

type mintOptions struct {
	PrivateKey string
	Subject    string
	Email      string
	Roles      string
	Issuer     string
	Expiry     time.Duration
}

// mint writes a signed token to w. A summary goes to stderr so w stays pipeable.
func mint(w io.Writer, opts mintOptions) error {
	roles, err := domain.ParseRoleSet(splitRoles(opts.Roles))
	if err != nil {
		return err
	}
	if roles.Len() == 0 {
		return errors.New("at least one role is required")
	}
	subject := opts.Subject
	if subject == "" {
		subject = uuid.NewString()
	}

	keys, err := jwt.LoadPrivateKey(opts.PrivateKey)
	if err != nil {
		return err
	}
	tokens, err := jwt.NewService(jwt.Config{Keys: keys, Expiry: opts.Expiry, Issuer: opts.Issuer})
	if err != nil {
		return err
	}

	token, err := tokens.Issue(subject, opts.Email, roles)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "subject=%s roles=%s expires_in=%s\n", subject, strings.Join(roles.Strings(), ","), opts.Expiry)
	_, err = fmt.Fprintln(w, token)
	return err
}

func inspectToken(w io.Writer, token string) error {
	claims, ok := jwt.DecodeUnsafe(token)
	if !ok {
		return errors.New("token is not a decodable JWT")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(claims)
}

func splitRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(strings.ToUpper(r)); r != "" {
			out = append(out, r)
		}
	}
	return out
}
