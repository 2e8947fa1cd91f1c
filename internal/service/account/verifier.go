package account

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ninejamarkets/market-cli/internal/gateway/market"
	"github.com/ninejamarkets/market-cli/internal/service/editor"
)

// verifier sends and checks codes on the endpoints of the editor's user type
// and turns rejected codes into editor errors.
type verifier struct {
	editor *Editor
}

func (v *verifier) SendVerificationCode(ctx context.Context, email string) error {
	e := v.editor
	if err := e.api.SendVerificationCode(ctx, e.userType, email); err != nil {
		e.logger.Warn("send verification failed", zap.String("email", email), zap.Error(err))
		e.notifier.Error("Failed to send Verification")
		return err
	}
	e.notifier.Success("Email Verification Sent")
	return nil
}

func (v *verifier) VerifyCode(ctx context.Context, email string, code string) error {
	e := v.editor
	if err := e.api.VerifyCode(ctx, e.userType, email, code); err != nil {
		e.logger.Warn("verify code failed", zap.String("email", email), zap.Error(err))
		e.notifier.Error("Invalid Token")
		return classifyCodeError(err)
	}
	e.notifier.Success("Email Verified")
	return nil
}

func classifyCodeError(err error) error {
	switch {
	case market.IsExpired(err):
		return fmt.Errorf("%w: %s", editor.ErrCodeExpired, market.RemoteMessage(err))
	case market.IsValidation(err), market.IsNotFound(err), market.IsUnauthorized(err):
		return fmt.Errorf("%w: %s", editor.ErrInvalidCode, market.RemoteMessage(err))
	default:
		return err
	}
}
