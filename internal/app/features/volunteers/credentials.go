// internal/app/features/volunteers/credentials.go
package volunteers

import (
	"context"
	"crypto/rand"
	"math/big"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
	"github.com/gateaccess/gateaccess/internal/app/system/mailer"
)

const siteName = "Gate Access"

const tempPasswordLength = 8

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ResetPassword records a reset request for the volunteer and sends the
// reset email through the configured sender.
func (s *Service) ResetPassword(ctx context.Context, actor Actor, userID string) error {
	v, err := s.store.Get(ctx, userID, []string{"userID", "username", "email"})
	if err != nil {
		return err
	}
	if v == nil {
		return volunteerstore.ErrNotFound
	}
	email, _ := v["email"].(string)

	msg := mailer.BuildPasswordResetEmail(mailer.PasswordResetEmailData{
		SiteName: siteName,
		ResetURL: s.baseURL + "/reset-password?user=" + userID,
	})
	msg.To = email
	return s.mail.Send(ctx, msg)
}

// ResendWelcomeEmail issues a fresh temporary credential, stores its hash
// with the welcome-email audit fields, and sends the registration email.
func (s *Service) ResendWelcomeEmail(ctx context.Context, actor Actor, userID string) (bson.M, error) {
	password, err := tempPassword()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	updated, err := s.Upsert(ctx, actor, bson.M{
		"userID":                       userID,
		"password":                     string(hash),
		"lastWelcomeEmailSentDate":     s.now(),
		"lastWelcomeEmailSentByUserID": actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	username, _ := updated["username"].(string)
	email, _ := updated["email"].(string)
	msg := mailer.BuildWelcomeEmail(mailer.WelcomeEmailData{
		SiteName: siteName,
		Username: username,
		Password: password,
		URL:      s.baseURL,
	})
	msg.To = email
	if err := s.mail.Send(ctx, msg); err != nil {
		return updated, err
	}
	return updated, nil
}

func tempPassword() (string, error) {
	buf := make([]byte, tempPasswordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
