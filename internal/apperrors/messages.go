package apperrors

var titles = map[Operation]string{
	OpSignUp:              "Erro no cadastro",
	OpSignIn:              "Erro ao entrar",
	OpSignOut:             "Erro ao sair",
	OpResetPassword:       "Erro ao recuperar senha",
	OpUpdatePassword:      "Erro ao atualizar senha",
	OpResendConfirmation:  "Erro ao reenviar email",
	OpCheckout:            "Erro no pagamento",
	OpPortal:              "Erro ao abrir portal",
	OpRefreshSubscription: "Erro na assinatura",
	OpVerify:              "Erro na verificação",
}

var generic = map[Operation]string{
	OpSignUp:              "Não foi possível criar sua conta. Tente novamente.",
	OpSignIn:              "Não foi possível entrar. Tente novamente.",
	OpSignOut:             "Não foi possível sair da conta. Tente novamente.",
	OpResetPassword:       "Não foi possível enviar o email de recuperação. Tente novamente.",
	OpUpdatePassword:      "Não foi possível atualizar sua senha. Tente novamente.",
	OpResendConfirmation:  "Não foi possível reenviar o email de confirmação. Tente novamente.",
	OpCheckout:            "Não foi possível iniciar o pagamento. Tente novamente.",
	OpPortal:              "Não foi possível abrir o portal de assinatura. Tente novamente.",
	OpRefreshSubscription: "Não foi possível verificar sua assinatura.",
	OpVerify:              "O link expirou ou é inválido. Solicite um novo.",
}

// Title is the notice heading used for failures of op.
func Title(op Operation) string {
	if t, ok := titles[op]; ok {
		return t
	}
	return "Erro"
}

func message(kind Kind, op Operation) string {
	switch kind {
	case KindAlreadyRegistered:
		return "Este email já está cadastrado. Faça login ou recupere sua senha."
	case KindWeakPassword:
		return "A senha deve ter pelo menos 6 caracteres."
	case KindInvalidEmail:
		return "Email inválido. Verifique o endereço digitado."
	case KindRateLimited:
		return "Muitas tentativas. Aguarde alguns minutos e tente novamente."
	case KindInvalidCredentials:
		return "Email ou senha incorretos."
	case KindEmailNotConfirmed:
		return "Confirme seu email antes de entrar. Verifique sua caixa de entrada."
	case KindNotFound:
		return "Nenhuma conta encontrada com este email."
	case KindTransient:
		return "Sem conexão com o servidor. Verifique sua internet."
	case KindUnauthenticated:
		return "Você precisa estar logado para continuar."
	}
	if m, ok := generic[op]; ok {
		return m
	}
	return "Ocorreu um erro inesperado. Tente novamente."
}
