// Command issue-token prints a signed access token for local testing.
// Accounts are managed outside this service, so this is the only way to
// obtain a token without an identity provider.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/iliyamo/planetarium-reservation/internal/config"
	"github.com/iliyamo/planetarium-reservation/internal/model"
	"github.com/iliyamo/planetarium-reservation/internal/utils"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file holding JWT_SECRET")
	userID := pflag.Int64("user-id", 0, "subject of the token (required)")
	role := pflag.String("role", model.RoleCustomer, "CUSTOMER or ADMIN")
	ttl := pflag.Int("ttl-min", 0, "token lifetime in minutes (defaults to ACCESS_TOKEN_TTL_MIN)")
	pflag.Parse()

	if err := run(*envFile, *userID, strings.ToUpper(*role), *ttl); err != nil {
		fmt.Fprintln(os.Stderr, "issue-token:", err)
		os.Exit(1)
	}
}

func run(envFile string, userID int64, role string, ttl int) error {
	if userID <= 0 {
		return fmt.Errorf("--user-id must be positive")
	}
	if role != model.RoleCustomer && role != model.RoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}
	secret, defaultTTL, err := config.LoadJWT(envFile)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	tok, err := utils.NewAccessToken(secret, userID, role, ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format("2006-01-02 15:04:05 MST"))
	return nil
}
