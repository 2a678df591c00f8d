package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/agency-cms-api/internal/auth"
	"github.com/agency-cms-api/internal/mailer"
	"github.com/agency-cms-api/internal/media"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/payment"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/service"
	"github.com/agency-cms-api/internal/validation"
	"github.com/spf13/cobra"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(createAdminCmd())
	return cmd
}

func createAdminCmd() *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:     "create-admin",
		Short:   "Create an administrator account",
		Example: "  agencyctl user create-admin --email admin@agency.fr --password 's3cret!' --firstname Alex --lastname Martin",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			defer e.Close()

			services, err := e.services()
			if err != nil {
				return err
			}

			user, err := services.Auth.CreateAdmin(context.Background(), &req)
			if err != nil {
				var domain *service.Error
				if errors.As(err, &domain) {
					return errors.New(domain.Msg)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s) with id %s\n", user.Username, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&req.Firstname, "firstname", "", "first name")
	cmd.Flags().StringVar(&req.Lastname, "lastname", "", "last name")
	for _, name := range []string{"email", "password", "firstname", "lastname"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// services builds the service layer. Outbound email is only queued here;
// the server's dispatcher delivers it.
func (e *env) services() (*service.Services, error) {
	store, err := media.New(e.cfg.Media, e.log)
	if err != nil {
		return nil, err
	}
	sender, err := mailer.NewSender(e.cfg.Mail, e.log)
	if err != nil {
		return nil, err
	}
	templates, err := mailer.LoadTemplates(e.cfg.Mail.FromName, e.cfg.Payment.FrontendURL)
	if err != nil {
		return nil, err
	}

	infra := service.Infra{
		Tokens:    auth.NewTokenManager(e.cfg.Auth),
		Passwords: auth.NewPasswordHasher(e.cfg.Auth.BcryptCost, e.cfg.Auth.MinPasswordLength),
		Sanitizer: validation.NewSanitizer(),
		Media:     store,
		Payments:  payment.New(e.cfg.Payment, e.log),
		Sender:    sender,
		Templates: templates,
	}
	return service.NewServices(repository.New(e.db), infra, e.cfg, e.log), nil
}
