package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/linkbio/internal/auth"
	"git.home.luguber.info/inful/linkbio/internal/metrics"
)

// UserCmd groups user management subcommands.
type UserCmd struct {
	Create UserCreateCmd `cmd:"" help:"Create a user account"`
}

// UserCreateCmd implements 'user create'. It goes through the same validation
// as the registration form.
type UserCreateCmd struct {
	Email    string `required:"" help:"E-mail address"`
	Username string `required:"" help:"Public page name (/{username})"`
	Name     string `required:"" help:"Display name"`
	Password string `required:"" env:"LINKBIO_USER_PASSWORD" help:"Password (min 6 characters)"`
}

func (u *UserCreateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	user, err := auth.NewService(st, metrics.NoopRecorder{}).Register(ctx, auth.RegisterRequest{
		Email:    u.Email,
		Password: u.Password,
		Name:     u.Name,
		Username: u.Username,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Created user %s (%s)\n", user.Username, user.ID)
	return nil
}
