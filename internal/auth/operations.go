package auth

import (
	"context"
	"errors"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/apperrors"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/authclient"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/ui"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/metrics"
)

// SignUp creates an account. When the platform requires email confirmation
// the user is told to check their inbox.
func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) error {
	defer m.begin()()

	var meta map[string]interface{}
	if displayName != "" {
		meta = map[string]interface{}{"display_name": displayName}
	}
	res, err := m.platform.SignUp(ctx, email, password, meta, m.redirectURL)
	if err != nil {
		return m.fail(apperrors.OpSignUp, err)
	}
	m.succeed(apperrors.OpSignUp)
	if res != nil && res.ConfirmationSent {
		m.notifier.Notify(ui.Info("Verifique seu email", "Enviamos um link de confirmação para "+email+"."))
	} else {
		m.notifier.Notify(ui.Success("Conta criada", "Bem-vindo ao LinguaFlow!"))
	}
	return nil
}

// SignIn signs in with email and password. State changes arrive through the SIGNED_IN event.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	defer m.begin()()

	if _, err := m.platform.SignInWithPassword(ctx, email, password); err != nil {
		return m.fail(apperrors.OpSignIn, err)
	}
	m.succeed(apperrors.OpSignIn)
	m.notifier.Notify(ui.Success("Bem-vindo de volta!", "Login realizado com sucesso."))
	return nil
}

// SignOut signs out. Local state is cleared by the SIGNED_OUT event, not here.
func (m *Manager) SignOut(ctx context.Context) error {
	defer m.begin()()

	if err := m.platform.SignOut(ctx); err != nil {
		return m.fail(apperrors.OpSignOut, err)
	}
	m.succeed(apperrors.OpSignOut)
	return nil
}

// ResetPassword sends a recovery link. Success reads the same whether or not
// the account exists.
func (m *Manager) ResetPassword(ctx context.Context, email, redirectTo string) error {
	defer m.begin()()

	if redirectTo == "" {
		redirectTo = m.redirectURL
	}
	if err := m.platform.ResetPasswordForEmail(ctx, email, redirectTo); err != nil {
		return m.fail(apperrors.OpResetPassword, err)
	}
	m.succeed(apperrors.OpResetPassword)
	m.notifier.Notify(ui.Success("Verifique sua caixa de entrada",
		"Se existir uma conta com este email, você receberá um link para redefinir sua senha."))
	return nil
}

func (m *Manager) UpdatePassword(ctx context.Context, password string) error {
	defer m.begin()()

	if _, err := m.platform.UpdateUser(ctx, authclient.UserAttributes{Password: password}); err != nil {
		if errors.Is(err, authclient.ErrNoSession) {
			err = apperrors.Wrap(apperrors.KindUnauthenticated, apperrors.OpUpdatePassword, err)
		}
		return m.fail(apperrors.OpUpdatePassword, err)
	}
	m.succeed(apperrors.OpUpdatePassword)
	m.notifier.Notify(ui.Success("Senha atualizada", "Sua senha foi alterada com sucesso."))
	return nil
}

func (m *Manager) ResendConfirmation(ctx context.Context, email string) error {
	defer m.begin()()

	if err := m.platform.Resend(ctx, authclient.ResendSignup, email, m.redirectURL); err != nil {
		return m.fail(apperrors.OpResendConfirmation, err)
	}
	m.succeed(apperrors.OpResendConfirmation)
	m.notifier.Notify(ui.Info("Email reenviado", "Enviamos um novo link de confirmação para "+email+"."))
	return nil
}

// VerifyLink completes an emailed confirmation or recovery link.
func (m *Manager) VerifyLink(ctx context.Context, linkType, tokenHash string) error {
	defer m.begin()()

	if tokenHash == "" {
		return m.fail(apperrors.OpVerify, apperrors.New(apperrors.KindValidation, apperrors.OpVerify))
	}
	if _, err := m.platform.VerifyOTP(ctx, linkType, tokenHash); err != nil {
		return m.fail(apperrors.OpVerify, err)
	}
	m.succeed(apperrors.OpVerify)
	return nil
}

func (m *Manager) succeed(op apperrors.Operation) {
	metrics.AuthOperations.WithLabelValues(string(op), "ok").Inc()
}

// fail classifies err, records it and tells the user.
func (m *Manager) fail(op apperrors.Operation, err error) error {
	e := apperrors.Classify(op, err)
	metrics.AuthOperations.WithLabelValues(string(op), e.Kind.String()).Inc()
	m.log.Warnf("%s failed (%s): %v", op, e.Kind, err)
	m.notifier.Notify(ui.Error(apperrors.Title(op), e.Message))
	return e
}
