// Command token issues a bearer token for a user id, e.g. to bootstrap the first admin.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Freeeeeet/consultation_scheduler/internal/controller/rest"
	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

func main() {
	_ = godotenv.Load(".env")

	flags := pflag.NewFlagSet("token", pflag.ExitOnError)
	flags.Int64("id", 0, "user id (sub claim)")
	flags.String("role", string(model.RoleAdmin), "student, teacher or admin")
	flags.Bool("approved", true, "approved claim")
	flags.Duration("ttl", 24*time.Hour, "token lifetime")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		fail(err)
	}
	v.MustBindEnv("secret", "JWT_SECRET")

	caller := model.Caller{
		ID:       v.GetInt64("id"),
		Role:     model.Role(v.GetString("role")),
		Approved: v.GetBool("approved"),
	}
	secret := v.GetString("secret")

	switch {
	case secret == "":
		fail(fmt.Errorf("JWT_SECRET is required"))
	case caller.ID <= 0:
		fail(fmt.Errorf("--id must be positive"))
	case !caller.Role.Valid():
		fail(fmt.Errorf("unknown role %q", caller.Role))
	}

	token, err := rest.IssueToken([]byte(secret), caller, v.GetDuration("ttl"))
	if err != nil {
		fail(err)
	}
	fmt.Println(token)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "token:", err)
	os.Exit(1)
}
