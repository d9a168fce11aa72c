// Command devtoken mints an access token for local testing against the API.
// The signing secret comes from the same environment as the server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-shift-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/jwt"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	var (
		role       = flag.String("role", string(user.RoleOwner), "owner, manager or employee")
		companyID  = flag.String("company", fixtures.DemoCompanyID, "company id claim")
		employeeID = flag.String("employee", "", "employee id claim, required for self-service calls")
		userID     = flag.String("user", "", "user id claim (random when empty)")
		ttl        = flag.Duration("ttl", time.Hour, "token lifetime")
	)
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET_KEY is required")
		os.Exit(1)
	}

	if _, ok := user.RolePermissions[user.Role(*role)]; !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(1)
	}

	actor := user.Actor{
		UserID:    *userID,
		CompanyID: *companyID,
		Role:      user.Role(*role),
	}
	if actor.UserID == "" {
		actor.UserID = uuid.Must(uuid.NewV7()).String()
	}
	if *employeeID != "" {
		actor.EmployeeID = employeeID
	}

	token, expiresAt, err := jwt.NewJWTService(secret, *ttl).GenerateAccessToken(actor)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to sign token:", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
}
