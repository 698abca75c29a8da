package ledger

import "context"

func (l *Ledger) password(ctx context.Context) string {
	p, ok, err := l.kv.Get(ctx, PasswordKey)
	if err != nil {
		l.log.Warn().Err(err).Msg("Failed to read password, using default")
		return l.defaultPassword
	}
	if !ok || p == "" {
		return l.defaultPassword
	}
	return p
}

// Login compares pass with the stored password. A match marks the session
// authenticated until Logout or the end of the process.
func (l *Ledger) Login(ctx context.Context, pass string) bool {
	if pass != l.password(ctx) {
		l.log.Warn().Msg("Login rejected")
		return false
	}
	l.authenticated = true
	l.log.Debug().Msg("Login accepted")
	return true
}

// Logout ends the session.
func (l *Ledger) Logout() { l.authenticated = false }

// Authenticated reports whether Login succeeded in this session.
func (l *Ledger) Authenticated() bool { return l.authenticated }

// ChangePassword stores a new access password. It requires an authenticated session.
func (l *Ledger) ChangePassword(ctx context.Context, pass string) error {
	if !l.authenticated {
		return ErrNotAuthenticated
	}
	if pass == "" {
		return ErrEmptyPassword
	}
	if err := l.kv.Set(ctx, PasswordKey, pass); err != nil {
		return err
	}
	l.log.Info().Msg("Password changed")
	return nil
}
